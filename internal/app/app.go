// Package app wires the configuration, record store, parsing pipeline,
// scraper and query bot together.
package app

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/polymer-price-bot/internal/config"
	"github.com/lueurxax/polymer-price-bot/internal/llm"
	"github.com/lueurxax/polymer-price-bot/internal/observability"
	"github.com/lueurxax/polymer-price-bot/internal/parse"
	"github.com/lueurxax/polymer-price-bot/internal/scraper"
	"github.com/lueurxax/polymer-price-bot/internal/stats"
	"github.com/lueurxax/polymer-price-bot/internal/storage"
	"github.com/lueurxax/polymer-price-bot/internal/telegrambot"
)

type App struct {
	cfg    *config.Config
	db     *storage.DB
	logger *zerolog.Logger
}

func New(cfg *config.Config, db *storage.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:    cfg,
		db:     db,
		logger: logger,
	}
}

func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.db, a.cfg.HealthPort, a.logger).Start(ctx)
}

// RunBot runs only the query front-end.
func (a *App) RunBot(ctx context.Context) error {
	bot, err := telegrambot.New(a.cfg, a.db, stats.NewLedger(a.db), a.logger)
	if err != nil {
		return err
	}

	return bot.Run(ctx)
}

// RunScraper backfills history and monitors the tracked chats.
func (a *App) RunScraper(ctx context.Context) error {
	return a.newScraper().Run(ctx, true)
}

// RunFull runs the scraper and the query bot side by side, the normal
// production deployment.
func (a *App) RunFull(ctx context.Context) error {
	bot, err := telegrambot.New(a.cfg, a.db, stats.NewLedger(a.db), a.logger)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.newScraper().Run(ctx, true)
	})

	g.Go(func() error {
		return bot.Run(ctx)
	})

	return g.Wait()
}

func (a *App) newScraper() *scraper.Scraper {
	extractor := parse.NewExtractor(decimal.NewFromInt(a.cfg.MinPlausiblePrice))
	oracle := llm.New(a.cfg, a.logger)
	parser := parse.NewParser(extractor, oracle, a.cfg.ParserMinResults, a.logger)

	return scraper.New(a.cfg, a.db, parser, a.logger)
}
