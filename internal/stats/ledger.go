// Package stats derives daily price statistics from stored records.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lueurxax/polymer-price-bot/internal/core/domain"
)

var two = decimal.NewFromInt(2)

// RecordStore is the slice of the record store the ledger reads from.
type RecordStore interface {
	RecordsFor(ctx context.Context, normalizedName string, date time.Time) ([]domain.PriceRecord, error)
}

// Ledger computes per-day statistics for a polymer.
type Ledger struct {
	store RecordStore
}

func NewLedger(store RecordStore) *Ledger {
	return &Ledger{store: store}
}

// StatsFor aggregates all records for one (name, day) pair. It returns nil
// when the day has no observations.
//
// Extremes keep the provenance of the first record that reached them:
// a later record with an equal price does not take over LowestFrom or
// HighestFrom. Latest is the record with the greatest CreatedAt.
func (l *Ledger) StatsFor(ctx context.Context, normalizedName string, date time.Time) (*domain.PriceStatistics, error) {
	records, err := l.store.RecordsFor(ctx, normalizedName, date)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	stats := &domain.PriceStatistics{
		Lowest:      records[0].Price,
		Highest:     records[0].Price,
		LowestFrom:  provenance(records[0]),
		HighestFrom: provenance(records[0]),
		Latest:      records[0].Price,
		LatestFrom:  provenance(records[0]),
		Count:       len(records),
	}

	latest := records[0]

	for _, rec := range records[1:] {
		if rec.Price.LessThan(stats.Lowest) {
			stats.Lowest = rec.Price
			stats.LowestFrom = provenance(rec)
		}

		if rec.Price.GreaterThan(stats.Highest) {
			stats.Highest = rec.Price
			stats.HighestFrom = provenance(rec)
		}

		if rec.CreatedAt.After(latest.CreatedAt) {
			latest = rec
			stats.Latest = rec.Price
			stats.LatestFrom = provenance(rec)
		}
	}

	stats.Mean = stats.Highest.Add(stats.Lowest).Div(two)
	stats.Diff = stats.Highest.Sub(stats.Lowest)

	return stats, nil
}

func provenance(rec domain.PriceRecord) domain.Provenance {
	return domain.Provenance{
		SourceLink: rec.SourceLink,
		ChatID:     rec.ChatID,
	}
}
