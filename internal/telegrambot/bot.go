// Package telegrambot is the query front-end: users ask for polymer price
// history over a long-polling bot and get answers from the record store.
package telegrambot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/polymer-price-bot/internal/config"
	"github.com/lueurxax/polymer-price-bot/internal/observability"
	"github.com/lueurxax/polymer-price-bot/internal/stats"
	"github.com/lueurxax/polymer-price-bot/internal/storage"
)

const updateTimeout = 60

type Bot struct {
	cfg    *config.Config
	db     *storage.DB
	ledger *stats.Ledger
	api    *tgbotapi.BotAPI
	logger *zerolog.Logger
}

func New(cfg *config.Config, db *storage.DB, ledger *stats.Ledger, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}

	return &Bot{
		cfg:    cfg,
		db:     db,
		ledger: ledger,
		api:    api,
		logger: logger,
	}, nil
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
				continue
			}

			if update.Message == nil {
				continue
			}

			if !b.isAllowed(update.Message.From.ID) {
				b.logger.Warn().Int64("user_id", update.Message.From.ID).Str("username", update.Message.From.UserName).Msg("Unauthorized access attempt")
				continue
			}

			b.handleMessage(ctx, update.Message)
		}
	}
}

// isAllowed checks the user allowlist. An empty allowlist opens the bot to
// everyone, matching how trade-chat members actually use it.
func (b *Bot) isAllowed(userID int64) bool {
	if len(b.cfg.AllowedUserIDs) == 0 {
		return true
	}

	for _, id := range b.cfg.AllowedUserIDs {
		if id == userID {
			return true
		}
	}

	return false
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		observability.BotQueries.WithLabelValues("text").Inc()
		b.handleTextQuery(ctx, msg)

		return
	}

	b.logger.Info().Str("command", msg.Command()).Int64("user_id", msg.From.ID).Msg("Handling command")
	observability.BotQueries.WithLabelValues(msg.Command()).Inc()

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		b.handleHelp(msg)
	case "list":
		b.handleList(ctx, msg)
	case "price":
		b.handlePrice(ctx, msg)
	case "compare":
		b.handleCompare(ctx, msg)
	case "today":
		b.handleToday(ctx, msg)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if !b.isAllowed(query.From.ID) {
		return
	}

	// Callbacks on messages the Bot API can no longer access arrive
	// without the originating message; there is nothing to edit or answer
	// into then.
	if query.Message == nil {
		return
	}

	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Error().Err(err).Msg("failed to answer callback query")
	}

	data := query.Data

	switch {
	case strings.HasPrefix(data, "page:"):
		page, err := strconv.Atoi(strings.TrimPrefix(data, "page:"))
		if err != nil {
			return
		}

		b.editMenu(ctx, query.Message.Chat.ID, query.Message.MessageID, page)
	case strings.HasPrefix(data, "polymer:"):
		normalized := strings.TrimPrefix(data, "polymer:")
		b.sendHistory(ctx, query.Message.Chat.ID, normalized)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error().Err(err).Msg("failed to send reply")
	}
}
