package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsAgent/internal/ports"
)

// Runner wires the interval driver with the agent's auto cycle.
type Runner struct {
	driver ports.Scheduler
	agent  *Agent
	logger *slog.Logger
}

// NewRunner returns a helper to start/stop recurring cycles.
func NewRunner(driver ports.Scheduler, agent *Agent, logger *slog.Logger) *Runner {
	return &Runner{driver: driver, agent: agent, logger: logger}
}

// Start registers the auto cycle with the provided scheduler.
func (r *Runner) Start(ctx context.Context) error {
	if r.driver == nil || r.agent == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report := r.agent.RunAutoCycle(ctx)
		if r.logger != nil {
			r.logger.Info("auto cycle finished",
				"trigger", trigger.Format(time.RFC3339),
				"scraped", report.Ingest.Scraped,
				"saved", report.Ingest.Saved,
				"processed", report.Process.Processed,
				"published", report.Publish.Published,
			)
		}
	}

	return r.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (r *Runner) Stop(ctx context.Context) error {
	if r.driver == nil {
		return nil
	}

	return r.driver.Stop(ctx)
}
