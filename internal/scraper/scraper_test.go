package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/polymer-price-bot/internal/config"
)

func newTestScraper() *Scraper {
	logger := zerolog.Nop()

	return New(&config.Config{ScraperConcurrency: 1}, nil, nil, &logger)
}

func TestFetchIntoDeliversResult(t *testing.T) {
	s := newTestScraper()
	results := make(chan fetchResult, 1)

	s.fetchInto(42, results, func() (int, error) {
		return 3, nil
	})

	res := <-results
	require.Equal(t, int64(42), res.chatID)
	require.Equal(t, 3, res.count)
	require.NoError(t, res.err)
}

func TestFetchIntoDeliversResultOnPanic(t *testing.T) {
	s := newTestScraper()
	results := make(chan fetchResult, 1)

	// A panicking fetch must still produce a result, or the cycle's
	// collecting loop waits forever for the missing one.
	s.fetchInto(42, results, func() (int, error) {
		panic("boom")
	})

	res := <-results
	require.Equal(t, int64(42), res.chatID)
	require.Error(t, res.err)
	require.Contains(t, res.err.Error(), "boom")
}

func TestFetchIntoDeliversError(t *testing.T) {
	s := newTestScraper()
	results := make(chan fetchResult, 1)
	wantErr := errors.New("fetch failed")

	s.fetchInto(7, results, func() (int, error) {
		return 0, wantErr
	})

	res := <-results
	require.ErrorIs(t, res.err, wantErr)
}

func TestBatchBoundsCountsAllMessageKinds(t *testing.T) {
	batch := []tg.MessageClass{
		&tg.MessageService{ID: 3},
		&tg.Message{ID: 9},
		&tg.MessageEmpty{ID: 5},
	}

	minID, maxID := batchBounds(batch)

	require.Equal(t, 3, minID)
	require.Equal(t, 9, maxID)
}

func TestBatchBoundsEmpty(t *testing.T) {
	minID, maxID := batchBounds(nil)

	require.Zero(t, minID)
	require.Zero(t, maxID)
}

// historyStub answers the first history request with a flood wait and the
// second with a single-message page.
type historyStub struct {
	calls int
}

func (s *historyStub) Invoke(_ context.Context, _ bin.Encoder, output bin.Decoder) error {
	s.calls++
	if s.calls == 1 {
		return tgerr.New(420, "FLOOD_WAIT_0")
	}

	var buf bin.Buffer

	if err := (&tg.MessagesMessages{
		Messages: []tg.MessageClass{
			&tg.Message{ID: 7, PeerID: &tg.PeerChannel{ChannelID: 42}},
		},
	}).Encode(&buf); err != nil {
		return err
	}

	return output.Decode(&buf)
}

func TestGetHistoryRetriesAfterFloodWait(t *testing.T) {
	s := newTestScraper()
	stub := &historyStub{}
	api := tg.NewClient(stub)

	messages, err := s.getHistory(context.Background(), api, 42, &tg.MessagesGetHistoryRequest{
		Peer: &tg.InputPeerChannel{ChannelID: 42},
	})

	require.NoError(t, err)
	require.Equal(t, 2, stub.calls)
	require.Len(t, messages, 1)
	require.Equal(t, 7, messages[0].GetID())
}
