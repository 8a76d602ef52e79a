package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymer_messages_scanned_total",
		Help: "The total number of chat messages scanned",
	}, []string{"chat"})

	EntriesExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymer_entries_extracted_total",
		Help: "The total number of priced entries extracted by source",
	}, []string{"source"})

	EntriesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymer_entries_stored_total",
		Help: "The total number of priced entries written to the record store",
	})

	OracleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymer_oracle_requests_total",
		Help: "The total number of oracle requests",
	}, []string{"status"})

	OracleRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymer_oracle_request_duration_seconds",
		Help:    "Duration of oracle requests",
		Buckets: prometheus.DefBuckets,
	})

	ScrapeCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymer_scrape_cycle_duration_seconds",
		Help:    "Duration of a full scrape cycle over all chats",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
	})

	FloodWaits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymer_flood_wait_total",
		Help: "Total number of Telegram flood wait events",
	}, []string{"chat"})

	BotQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymer_bot_queries_total",
		Help: "Total number of bot queries by command",
	}, []string{"command"})
)
