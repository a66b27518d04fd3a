package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
)

const (
	defaultProcessLimit = 5
	defaultPublishLimit = 3
)

// AgentDeps wires all driven adapters into the lifecycle agent.
type AgentDeps struct {
	Store        ports.ArticleStore
	Rewriter     ports.Rewriter
	Publishers   []ports.Publisher
	Source       ports.ArticleSource
	ProcessLimit int
	PublishLimit int
	Logger       *slog.Logger
}

// Agent drives articles through the draft -> ready -> published lifecycle.
// Every operation is a single synchronous unit of work returning a
// structured report; per-article and per-channel failures never abort a
// batch, only losing the store does.
type Agent struct {
	store        ports.ArticleStore
	rewriter     ports.Rewriter
	publishers   []ports.Publisher
	source       ports.ArticleSource
	processLimit int
	publishLimit int
	logger       *slog.Logger
}

// NewAgent constructs the orchestration component.
func NewAgent(deps AgentDeps) *Agent {
	processLimit := deps.ProcessLimit
	if processLimit <= 0 {
		processLimit = defaultProcessLimit
	}
	publishLimit := deps.PublishLimit
	if publishLimit <= 0 {
		publishLimit = defaultPublishLimit
	}

	return &Agent{
		store:        deps.Store,
		rewriter:     deps.Rewriter,
		publishers:   deps.Publishers,
		source:       deps.Source,
		processLimit: processLimit,
		publishLimit: publishLimit,
		logger:       deps.Logger,
	}
}

// ProcessDrafts rewrites up to limit drafts (newest first) and moves the
// successful ones to ready. A failed rewrite leaves its article untouched.
func (a *Agent) ProcessDrafts(ctx context.Context, limit int) (domain.ProcessReport, error) {
	if a.store == nil {
		return domain.ProcessReport{}, fmt.Errorf("article store is not configured")
	}
	if a.rewriter == nil {
		return domain.ProcessReport{}, fmt.Errorf("rewriter is not configured")
	}
	if limit <= 0 {
		limit = a.processLimit
	}

	drafts, err := a.store.ListByStatus(ctx, domain.StatusDraft, limit)
	if err != nil {
		return domain.ProcessReport{}, fmt.Errorf("list drafts: %w", err)
	}

	report := domain.ProcessReport{Total: len(drafts)}
	for _, draft := range drafts {
		rewritten, err := a.rewriter.Rewrite(ctx, draft.Title, draft.Content, draft.SourceURL)
		if err != nil {
			a.warn("rewrite failed", "article_id", draft.ID, "error", err)
			continue
		}
		if strings.TrimSpace(rewritten) == "" {
			a.warn("rewrite returned empty content", "article_id", draft.ID)
			continue
		}

		if err := a.store.MarkReady(ctx, draft.ID, rewritten); err != nil {
			a.warn("mark ready failed", "article_id", draft.ID, "error", err)
			continue
		}

		report.Processed++
		a.debug("draft processed", "article_id", draft.ID, "title", draft.Title)
	}

	return report, nil
}

// PublishReady fans out up to limit ready articles (newest first) to every
// configured channel. An article is published iff at least one channel
// accepted it; otherwise it stays ready and is retried on the next run.
func (a *Agent) PublishReady(ctx context.Context, limit int) (domain.PublishReport, error) {
	if a.store == nil {
		return domain.PublishReport{}, fmt.Errorf("article store is not configured")
	}

	channels := a.configuredPublishers()
	if len(channels) == 0 {
		return domain.PublishReport{}, fmt.Errorf("no publish channels configured")
	}
	if limit <= 0 {
		limit = a.publishLimit
	}

	ready, err := a.store.ListByStatus(ctx, domain.StatusReady, limit)
	if err != nil {
		return domain.PublishReport{}, fmt.Errorf("list ready: %w", err)
	}

	report := domain.PublishReport{Total: len(ready)}
	for _, article := range ready {
		outcome := a.fanOut(ctx, channels, article)
		if outcome.Published {
			report.Published++
		}
		report.Articles = append(report.Articles, outcome)
	}

	return report, nil
}

// PublishArticle fans out a single ready article by id. A nonexistent id
// surfaces as an error without any state change.
func (a *Agent) PublishArticle(ctx context.Context, id int64) (domain.ArticleOutcome, error) {
	if a.store == nil {
		return domain.ArticleOutcome{}, fmt.Errorf("article store is not configured")
	}

	channels := a.configuredPublishers()
	if len(channels) == 0 {
		return domain.ArticleOutcome{}, fmt.Errorf("no publish channels configured")
	}

	article, err := a.store.Get(ctx, id)
	if err != nil {
		return domain.ArticleOutcome{}, fmt.Errorf("get article %d: %w", id, err)
	}
	if article.Status != domain.StatusReady {
		return domain.ArticleOutcome{}, fmt.Errorf("article %d is %s, not ready", id, article.Status)
	}

	return a.fanOut(ctx, channels, article), nil
}

func (a *Agent) fanOut(ctx context.Context, channels []ports.Publisher, article domain.Article) domain.ArticleOutcome {
	outcome := domain.ArticleOutcome{ArticleID: article.ID, Title: article.Title}

	for _, channel := range channels {
		attempt := domain.PublishAttempt{Channel: channel.Name()}
		messageID, err := channel.Publish(ctx, article)
		if err != nil {
			attempt.Error = err.Error()
			a.warn("channel publish failed", "article_id", article.ID, "channel", channel.Name(), "error", err)
		} else {
			attempt.Success = true
			attempt.MessageID = messageID
		}
		outcome.Attempts = append(outcome.Attempts, attempt)
	}

	// The status write waits until every channel attempt has finished.
	if anySucceeded(outcome.Attempts) {
		if err := a.store.MarkPublished(ctx, article.ID, time.Now()); err != nil {
			a.warn("mark published failed", "article_id", article.ID, "error", err)
		} else {
			outcome.Published = true
		}
	}

	return outcome
}

// Ingest pulls fresh draft candidates from the source and stores the
// previously unseen ones.
func (a *Agent) Ingest(ctx context.Context) (domain.IngestReport, error) {
	if a.store == nil {
		return domain.IngestReport{}, fmt.Errorf("article store is not configured")
	}
	if a.source == nil {
		return domain.IngestReport{}, fmt.Errorf("article source is not configured")
	}

	articles, err := a.source.Fetch(ctx)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("fetch articles: %w", err)
	}

	report := domain.IngestReport{Scraped: len(articles)}
	for _, article := range articles {
		saved, err := a.store.SaveDraft(ctx, article)
		if err != nil {
			a.warn("save draft failed", "title", article.Title, "error", err)
			continue
		}
		if saved {
			report.Saved++
		}
	}

	return report, nil
}

// RunAutoCycle executes scrape -> process -> publish in strict sequence.
// Each stage's outcome is captured independently; a failed scrape does not
// stop processing or publishing of articles already in the store.
func (a *Agent) RunAutoCycle(ctx context.Context) domain.CycleReport {
	var report domain.CycleReport

	ingest, err := a.Ingest(ctx)
	report.Ingest = ingest
	if err != nil {
		report.IngestErr = err.Error()
		a.warn("ingest stage failed", "error", err)
	}

	process, err := a.ProcessDrafts(ctx, 0)
	report.Process = process
	if err != nil {
		report.ProcessErr = err.Error()
		a.warn("process stage failed", "error", err)
	}

	publish, err := a.PublishReady(ctx, 0)
	report.Publish = publish
	if err != nil {
		report.PublishErr = err.Error()
		a.warn("publish stage failed", "error", err)
	}

	return report
}

// Stats reports the per-status article census.
func (a *Agent) Stats(ctx context.Context) (domain.Stats, error) {
	if a.store == nil {
		return domain.Stats{}, fmt.Errorf("article store is not configured")
	}

	counts, err := a.store.CountByStatus(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count by status: %w", err)
	}

	stats := domain.Stats{
		Drafts:    counts[domain.StatusDraft],
		Ready:     counts[domain.StatusReady],
		Published: counts[domain.StatusPublished],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func (a *Agent) configuredPublishers() []ports.Publisher {
	configured := make([]ports.Publisher, 0, len(a.publishers))
	for _, p := range a.publishers {
		if p != nil && p.Configured() {
			configured = append(configured, p)
		}
	}
	return configured
}

func anySucceeded(attempts []domain.PublishAttempt) bool {
	for _, attempt := range attempts {
		if attempt.Success {
			return true
		}
	}
	return false
}

func (a *Agent) warn(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}

func (a *Agent) debug(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
