// Package scraper reads the tracked trade chats over MTProto, runs every
// message through the parsing pipeline and writes priced entries to the
// record store.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"

	"github.com/lueurxax/polymer-price-bot/internal/config"
	"github.com/lueurxax/polymer-price-bot/internal/core/domain"
	"github.com/lueurxax/polymer-price-bot/internal/observability"
	"github.com/lueurxax/polymer-price-bot/internal/parse"
	"github.com/lueurxax/polymer-price-bot/internal/platform/worker"
	"github.com/lueurxax/polymer-price-bot/internal/storage"
)

// ErrChatNotFound indicates a configured chat was not present in the
// account's dialogs.
var ErrChatNotFound = errors.New("chat not found in dialogs")

const dialogsFetchLimit = 100

type Scraper struct {
	cfg    *config.Config
	db     *storage.DB
	parser *parse.Parser
	logger *zerolog.Logger

	// Worker pool for parallel chat fetches.
	workerSem chan struct{}
}

func New(cfg *config.Config, db *storage.DB, parser *parse.Parser, logger *zerolog.Logger) *Scraper {
	workerCount := cfg.ScraperConcurrency
	if workerCount < 1 {
		workerCount = 1
	}

	return &Scraper{
		cfg:       cfg,
		db:        db,
		parser:    parser,
		logger:    logger,
		workerSem: make(chan struct{}, workerCount),
	}
}

// Run connects to Telegram as a user, backfills history when requested and
// then monitors the tracked chats until the context is canceled.
func (s *Scraper) Run(ctx context.Context, backfill bool) error {
	client := telegram.NewClient(s.cfg.TGAPIID, s.cfg.TGAPIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{
			Path: s.cfg.TGSessionPath,
		},
	})

	return client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, s.authFlow()); err != nil {
			return fmt.Errorf("telegram auth: %w", err)
		}

		s.logger.Info().Msg("Successfully authenticated as user")

		api := tg.NewClient(client)

		peers, err := s.resolvePeers(ctx, api)
		if err != nil {
			return err
		}

		if backfill {
			if err := s.backfill(ctx, api, peers); err != nil {
				return err
			}
		}

		return worker.Loop(ctx, worker.Config{
			Name:         "chat-monitor",
			PollInterval: s.cfg.MonitorInterval,
			Process: func(ctx context.Context) error {
				return s.scrapeCycle(ctx, api, peers)
			},
			OnError: func(err error) bool {
				// Auth failures cannot heal without operator action.
				return !errors.Is(err, parse.ErrAuth)
			},
			Logger: s.logger,
		})
	})
}

// resolvePeers maps the configured chat IDs to input peers with access
// hashes. The account must already be a member of every tracked chat, so
// all of them appear in its dialogs.
func (s *Scraper) resolvePeers(ctx context.Context, api *tg.Client) (map[int64]*tg.InputPeerChannel, error) {
	dialogs, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      dialogsFetchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("get dialogs: %w", err)
	}

	var chats []tg.ChatClass

	switch d := dialogs.(type) {
	case *tg.MessagesDialogs:
		chats = d.Chats
	case *tg.MessagesDialogsSlice:
		chats = d.Chats
	}

	known := make(map[int64]*tg.InputPeerChannel)

	for _, chat := range chats {
		channel, ok := chat.(*tg.Channel)
		if !ok {
			continue
		}

		known[channel.ID] = &tg.InputPeerChannel{
			ChannelID:  channel.ID,
			AccessHash: channel.AccessHash,
		}
	}

	peers := make(map[int64]*tg.InputPeerChannel, len(s.cfg.ChatIDs))

	for _, chatID := range s.cfg.ChatIDs {
		id := bareChannelID(chatID)

		peer, ok := known[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrChatNotFound, chatID)
		}

		peers[id] = peer
	}

	s.logger.Info().Int("chats", len(peers)).Msg("Resolved tracked chats")

	return peers, nil
}

type fetchResult struct {
	chatID int64
	count  int
	err    error
}

// fetchInto runs fn and always delivers exactly one result on the channel,
// turning a panic into an error. The collecting loop counts on one result
// per launched fetch.
func (s *Scraper) fetchInto(chatID int64, results chan<- fetchResult, fn func() (int, error)) {
	res := fetchResult{chatID: chatID}

	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("fetch chat messages: panic: %v", r)
		}

		results <- res
	}()

	res.count, res.err = fn()
}

// scrapeCycle fetches new messages from every tracked chat once, fanning
// out over the worker pool.
func (s *Scraper) scrapeCycle(ctx context.Context, api *tg.Client, peers map[int64]*tg.InputPeerChannel) error {
	start := time.Now()

	results := make(chan fetchResult, len(peers))

	for chatID, peer := range peers {
		chatID, peer := chatID, peer

		select {
		case s.workerSem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		go func() {
			defer func() { <-s.workerSem }()

			s.fetchInto(chatID, results, func() (int, error) {
				return s.fetchNewMessages(ctx, api, chatID, peer)
			})
		}()
	}

	stored := 0

	for i := 0; i < len(peers); i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result := <-results:
			if result.err != nil {
				if errors.Is(result.err, parse.ErrAuth) {
					return result.err
				}

				s.logger.Error().Int64("chat_id", result.chatID).Err(result.err).Msg("failed to fetch chat messages")
			}

			stored += result.count
		}
	}

	observability.ScrapeCycleDuration.Observe(time.Since(start).Seconds())
	s.logger.Info().Int("chats", len(peers)).Int("stored", stored).Dur("duration", time.Since(start)).Msg("Finished scrape cycle")

	return nil
}

// fetchNewMessages reads everything newer than the chat's cursor and runs
// it through the pipeline. Returns the number of entries stored.
func (s *Scraper) fetchNewMessages(ctx context.Context, api *tg.Client, chatID int64, peer *tg.InputPeerChannel) (int, error) {
	cursor, err := s.db.GetCursor(ctx, chatID)
	if err != nil {
		return 0, err
	}

	req := &tg.MessagesGetHistoryRequest{
		Peer:  peer,
		Limit: s.cfg.ScraperFetchLimit,
	}

	if cursor > 0 {
		req.MinID = cursor
	}

	messages, err := s.getHistory(ctx, api, chatID, req)
	if err != nil {
		return 0, err
	}

	stored := 0
	maxID := cursor

	for _, m := range messages {
		// Service and empty messages advance the cursor too; otherwise
		// MinID keeps re-delivering them every cycle.
		if id := m.GetID(); id > maxID {
			maxID = id
		}

		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}

		count, err := s.processMessage(ctx, chatID, msg)
		if err != nil {
			return stored, err
		}

		stored += count
	}

	if maxID > cursor {
		if err := s.db.SetCursor(ctx, chatID, maxID); err != nil {
			return stored, err
		}
	}

	return stored, nil
}

// backfill walks each tracked chat backwards until the cutoff date,
// processing every message on the way. Pagination is by OffsetID, so a
// restarted backfill re-processes messages; the upsert keeps that harmless.
func (s *Scraper) backfill(ctx context.Context, api *tg.Client, peers map[int64]*tg.InputPeerChannel) error {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.ScrapeDays)

	s.logger.Info().Time("cutoff", cutoff).Int("chats", len(peers)).Msg("Starting backfill")

	for chatID, peer := range peers {
		if err := s.backfillChat(ctx, api, chatID, peer, cutoff); err != nil {
			return fmt.Errorf("backfill chat %d: %w", chatID, err)
		}
	}

	s.logger.Info().Msg("Backfill complete")

	return nil
}

func (s *Scraper) backfillChat(ctx context.Context, api *tg.Client, chatID int64, peer *tg.InputPeerChannel, cutoff time.Time) error {
	offsetID := 0
	stored := 0
	maxID := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		req := &tg.MessagesGetHistoryRequest{
			Peer:     peer,
			OffsetID: offsetID,
			Limit:    s.cfg.ScraperFetchLimit,
		}

		messages, err := s.getHistory(ctx, api, chatID, req)
		if err != nil {
			return err
		}

		if len(messages) == 0 {
			break
		}

		// The next page starts below the oldest message in the batch,
		// whatever its kind. A page of only service messages must still
		// move the offset or the walk spins on the same page.
		batchMin, batchMax := batchBounds(messages)
		offsetID = batchMin

		if batchMax > maxID {
			maxID = batchMax
		}

		reachedCutoff := false

		for _, m := range messages {
			msg, ok := m.(*tg.Message)
			if !ok {
				continue
			}

			if time.Unix(int64(msg.Date), 0).Before(cutoff) {
				reachedCutoff = true

				continue
			}

			count, err := s.processMessage(ctx, chatID, msg)
			if err != nil {
				return err
			}

			stored += count
		}

		if reachedCutoff {
			break
		}
	}

	if maxID > 0 {
		if err := s.db.SetCursor(ctx, chatID, maxID); err != nil {
			return err
		}
	}

	s.logger.Info().Int64("chat_id", chatID).Int("stored", stored).Msg("Backfilled chat")

	return nil
}

// batchBounds returns the smallest and largest message IDs in a history
// batch, counting every message kind.
func batchBounds(messages []tg.MessageClass) (minID, maxID int) {
	for _, m := range messages {
		id := m.GetID()

		if minID == 0 || id < minID {
			minID = id
		}

		if id > maxID {
			maxID = id
		}
	}

	return minID, maxID
}

// getHistory wraps MessagesGetHistory with flood-wait handling: the penalty
// is slept out and the request retried, so an empty return always means the
// requested window is exhausted.
func (s *Scraper) getHistory(ctx context.Context, api *tg.Client, chatID int64, req *tg.MessagesGetHistoryRequest) ([]tg.MessageClass, error) {
	for {
		history, err := api.MessagesGetHistory(ctx, req)
		if err != nil {
			floodErr, ok := tgerr.As(err)
			if ok && floodErr.Type == "FLOOD_WAIT" {
				observability.FloodWaits.WithLabelValues(strconv.FormatInt(chatID, 10)).Inc()
				s.logger.Warn().Int("seconds", floodErr.Argument).Int64("chat_id", chatID).Msg("flood wait")

				if err := worker.Wait(ctx, time.Duration(floodErr.Argument)*time.Second); err != nil {
					return nil, err
				}

				continue
			}

			return nil, fmt.Errorf("get history: %w", err)
		}

		switch h := history.(type) {
		case *tg.MessagesMessages:
			return h.Messages, nil
		case *tg.MessagesMessagesSlice:
			return h.Messages, nil
		case *tg.MessagesChannelMessages:
			return h.Messages, nil
		}

		return nil, nil
	}
}

// processMessage runs one message through the pipeline and stores every
// extracted entry. Returns the number of entries stored.
func (s *Scraper) processMessage(ctx context.Context, chatID int64, msg *tg.Message) (int, error) {
	text := msg.Message
	if len([]rune(text)) < s.cfg.MinMessageLen {
		return 0, nil
	}

	chatLabel := strconv.FormatInt(chatID, 10)
	observability.MessagesScanned.WithLabelValues(chatLabel).Inc()

	entities, err := s.parser.ParseMessage(ctx, text)
	if err != nil {
		return 0, err
	}

	date := domain.Day(time.Unix(int64(msg.Date), 0))
	if quoted, ok := parse.ExtractQuoteDate(text); ok {
		date = quoted
	}

	link := Permalink(chatID, msg.ID)
	sourceText := TruncateRunes(text, s.cfg.SourceTextMaxLen)

	stored := 0

	for _, entity := range entities {
		rec := domain.PriceRecord{
			ID:             uuid.NewString(),
			NormalizedName: entity.NormalizedName,
			DisplayName:    entity.DisplayName,
			Price:          entity.Price,
			Status:         entity.Status,
			Date:           date,
			SourceText:     sourceText,
			SourceLink:     link,
			ChatID:         chatID,
		}

		if err := s.db.InsertPrice(ctx, rec); err != nil {
			s.logger.Error().Err(err).Str("name", entity.NormalizedName).Str("link", link).Msg("failed to store price record")

			continue
		}

		observability.EntriesStored.Inc()

		stored++
	}

	return stored, nil
}
