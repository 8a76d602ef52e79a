// Package domain defines the core entities shared across the scraper,
// the parsing pipeline, the record store and the query bot.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusPriced marks an entity extracted together with an explicit price.
const StatusPriced = "PRICED"

// RawMessage is a single trade-chat message as delivered by the transport.
type RawMessage struct {
	ChatID    int64
	MessageID int64
	Date      time.Time
	Text      string
	Permalink string
}

// PricedEntity is one (name, price) pair extracted from a message.
type PricedEntity struct {
	DisplayName    string
	NormalizedName string
	Price          decimal.Decimal
	Status         string
}

// PriceRecord is one stored price observation. At most one logical record
// exists per (NormalizedName, Date, SourceLink); re-inserts overwrite.
type PriceRecord struct {
	ID             string
	NormalizedName string
	DisplayName    string
	Price          decimal.Decimal
	Status         string
	Date           time.Time
	SourceText     string
	SourceLink     string
	ChatID         int64
	CreatedAt      time.Time
}

// Provenance points back at the message a statistic was derived from.
type Provenance struct {
	SourceLink string
	ChatID     int64
}

// PriceStatistics aggregates all records for one (name, day) pair.
//
// Mean is (Highest+Lowest)/2 rather than the arithmetic mean of all
// observations. Downstream reports depend on this definition; do not
// change it to a true average.
type PriceStatistics struct {
	Lowest  decimal.Decimal
	Highest decimal.Decimal
	Mean    decimal.Decimal
	Diff    decimal.Decimal
	Count   int

	LowestFrom  Provenance
	HighestFrom Provenance
	Latest      decimal.Decimal
	LatestFrom  Provenance
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	u := t.UTC()

	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
