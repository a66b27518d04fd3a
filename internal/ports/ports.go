package ports

import (
	"context"
	"time"

	"NewsAgent/internal/domain"
)

// ArticleStore persists articles and arbitrates their status transitions.
type ArticleStore interface {
	ListByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Article, error)
	Get(ctx context.Context, id int64) (domain.Article, error)
	// MarkReady replaces the content of a draft and moves it to ready.
	// The transition is conditional on the current status being draft.
	MarkReady(ctx context.Context, id int64, content string) error
	// MarkPublished moves a ready article to published, stamping the
	// publication time exactly once.
	MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error
	// SaveDraft inserts a new draft unless one with the same title exists.
	// Reports whether a row was written.
	SaveDraft(ctx context.Context, article domain.Article) (bool, error)
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
}

// Rewriter turns a raw draft into publishable copy via a language model.
type Rewriter interface {
	Rewrite(ctx context.Context, title, content, sourceURL string) (string, error)
}

// Publisher posts an article to one distribution channel. Configured
// reports whether credentials are present; unconfigured publishers are
// skipped from the fan-out entirely.
type Publisher interface {
	Name() string
	Configured() bool
	Publish(ctx context.Context, article domain.Article) (string, error)
}

// ArticleSource pulls fresh draft candidates from the upstream site.
type ArticleSource interface {
	Fetch(ctx context.Context) ([]domain.Article, error)
}

// Scheduler controls when the auto cycle executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
