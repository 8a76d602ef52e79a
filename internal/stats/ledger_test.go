package stats

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/polymer-price-bot/internal/core/domain"
)

type stubStore struct {
	records []domain.PriceRecord
	err     error
}

func (s *stubStore) RecordsFor(ctx context.Context, normalizedName string, date time.Time) ([]domain.PriceRecord, error) {
	return s.records, s.err
}

func record(price int64, link string, createdAt time.Time) domain.PriceRecord {
	return domain.PriceRecord{
		NormalizedName: "j150",
		DisplayName:    "J150",
		Price:          decimal.NewFromInt(price),
		Status:         domain.StatusPriced,
		Date:           domain.Day(createdAt),
		SourceLink:     link,
		ChatID:         42,
		CreatedAt:      createdAt,
	}
}

func TestStatsForAggregates(t *testing.T) {
	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	store := &stubStore{records: []domain.PriceRecord{
		record(14800, "https://t.me/c/42/1", base),
		record(15200, "https://t.me/c/42/2", base.Add(time.Hour)),
		record(15000, "https://t.me/c/42/3", base.Add(2*time.Hour)),
	}}

	st, err := NewLedger(store).StatsFor(context.Background(), "j150", base)

	require.NoError(t, err)
	require.NotNil(t, st)
	require.True(t, st.Lowest.Equal(decimal.NewFromInt(14800)))
	require.True(t, st.Highest.Equal(decimal.NewFromInt(15200)))
	require.True(t, st.Mean.Equal(decimal.NewFromInt(15000)))
	require.True(t, st.Diff.Equal(decimal.NewFromInt(400)))
	require.Equal(t, 3, st.Count)
	require.Equal(t, "https://t.me/c/42/1", st.LowestFrom.SourceLink)
	require.Equal(t, "https://t.me/c/42/2", st.HighestFrom.SourceLink)
	require.True(t, st.Latest.Equal(decimal.NewFromInt(15000)))
	require.Equal(t, "https://t.me/c/42/3", st.LatestFrom.SourceLink)
}

func TestStatsForSingleRecord(t *testing.T) {
	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	store := &stubStore{records: []domain.PriceRecord{
		record(14900, "https://t.me/c/42/7", base),
	}}

	st, err := NewLedger(store).StatsFor(context.Background(), "j150", base)

	require.NoError(t, err)
	require.NotNil(t, st)
	require.True(t, st.Lowest.Equal(st.Highest))
	require.True(t, st.Mean.Equal(decimal.NewFromInt(14900)))
	require.True(t, st.Diff.IsZero())
	require.Equal(t, 1, st.Count)
}

func TestStatsForFirstSeenExtremeWins(t *testing.T) {
	// Two records at the same price: the earlier one keeps the provenance
	// for both extremes.
	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	store := &stubStore{records: []domain.PriceRecord{
		record(15000, "https://t.me/c/42/1", base),
		record(15000, "https://t.me/c/42/2", base.Add(time.Hour)),
	}}

	st, err := NewLedger(store).StatsFor(context.Background(), "j150", base)

	require.NoError(t, err)
	require.Equal(t, "https://t.me/c/42/1", st.LowestFrom.SourceLink)
	require.Equal(t, "https://t.me/c/42/1", st.HighestFrom.SourceLink)
	require.Equal(t, "https://t.me/c/42/2", st.LatestFrom.SourceLink)
}

func TestStatsForMeanIsMidpointNotAverage(t *testing.T) {
	// Mean is defined as (highest+lowest)/2, so a cluster of low quotes
	// does not pull it down.
	base := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	store := &stubStore{records: []domain.PriceRecord{
		record(14000, "https://t.me/c/42/1", base),
		record(14000, "https://t.me/c/42/2", base.Add(time.Minute)),
		record(14000, "https://t.me/c/42/3", base.Add(2*time.Minute)),
		record(16000, "https://t.me/c/42/4", base.Add(3*time.Minute)),
	}}

	st, err := NewLedger(store).StatsFor(context.Background(), "j150", base)

	require.NoError(t, err)
	require.True(t, st.Mean.Equal(decimal.NewFromInt(15000)), "mean = %s", st.Mean)
}

func TestStatsForEmptyDay(t *testing.T) {
	st, err := NewLedger(&stubStore{}).StatsFor(context.Background(), "j150", time.Now())

	require.NoError(t, err)
	require.Nil(t, st)
}
