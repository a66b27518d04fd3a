package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"NewsAgent/internal/config"
	"NewsAgent/internal/infrastructure/publisher"
	"NewsAgent/internal/infrastructure/rewriter"
	"NewsAgent/internal/infrastructure/scheduler"
	"NewsAgent/internal/infrastructure/scraper"
	"NewsAgent/internal/infrastructure/storage"
	"NewsAgent/internal/logging"
	"NewsAgent/internal/ports"
	"NewsAgent/internal/usecase"
)

// Application wires configuration to the lifecycle agent.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	agent  *usecase.Agent
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store, err := storage.NewPostgresStore(db, cfg.Database.Schema, cfg.Database.Table)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build store: %w", err)
	}

	var rw ports.Rewriter
	if cfg.Rewriter.APIKey != "" {
		rw = rewriter.NewOpenAIRewriter(cfg.Rewriter)
	}

	publishers := []ports.Publisher{
		publisher.NewTelegramPublisher(cfg.Telegram),
		publisher.NewVKPublisher(cfg.VK, baseLogger.With("component", "publisher.vk")),
	}

	source := scraper.NewProductScraper(nil, cfg.Scraper.SourceURL)

	agent := usecase.NewAgent(usecase.AgentDeps{
		Store:        store,
		Rewriter:     rw,
		Publishers:   publishers,
		Source:       source,
		ProcessLimit: cfg.Agent.ProcessLimit,
		PublishLimit: cfg.Agent.PublishLimit,
		Logger:       baseLogger.With("component", "agent"),
	})

	return &Application{
		cfg:    cfg,
		logger: baseLogger,
		db:     db,
		agent:  agent,
	}, nil
}

// Run executes the auto cycle once, or keeps it running on the configured
// interval until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := a.db.PingContext(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	interval := a.cfg.Scheduler.IntervalDuration()
	if interval <= 0 {
		report := a.agent.RunAutoCycle(ctx)
		a.logger.Info("auto cycle finished",
			"scraped", report.Ingest.Scraped,
			"saved", report.Ingest.Saved,
			"processed", report.Process.Processed,
			"published", report.Publish.Published,
		)
		return nil
	}

	runner := usecase.NewRunner(
		scheduler.NewTickerScheduler(interval),
		a.agent,
		a.logger.With("component", "runner"),
	)

	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("start runner: %w", err)
	}

	<-ctx.Done()
	return runner.Stop(context.Background())
}

// Close releases the database handle.
func (a *Application) Close() error {
	return a.db.Close()
}
