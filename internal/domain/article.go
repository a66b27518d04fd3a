package domain

import "time"

// Status is the lifecycle state of an article. Transitions only move
// forward: draft -> ready -> published.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusReady     Status = "ready"
	StatusPublished Status = "published"
)

// Article is the core entity moving through the news lifecycle.
type Article struct {
	ID          int64
	Title       string
	Description string
	Content     string
	Badge       string
	SourceURL   string
	ImageURL    string
	Status      Status
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PublishAttempt records the outcome of one channel during a fan-out.
// It lives only for the duration of a publish invocation.
type PublishAttempt struct {
	Channel   string
	Success   bool
	MessageID string
	Error     string
}

// ProcessReport summarizes one ProcessDrafts invocation.
type ProcessReport struct {
	Processed int
	Total     int
}

// ArticleOutcome carries per-channel attempts for a single article.
type ArticleOutcome struct {
	ArticleID int64
	Title     string
	Published bool
	Attempts  []PublishAttempt
}

// PublishReport summarizes one PublishReady invocation.
type PublishReport struct {
	Published int
	Total     int
	Articles  []ArticleOutcome
}

// IngestReport summarizes one scrape-and-save pass.
type IngestReport struct {
	Scraped int
	Saved   int
}

// CycleReport aggregates the three auto-cycle stages. Each stage keeps
// its own error so a broken scrape does not hide process/publish results.
type CycleReport struct {
	Ingest     IngestReport
	IngestErr  string
	Process    ProcessReport
	ProcessErr string
	Publish    PublishReport
	PublishErr string
}

// Stats is a per-status census of stored articles.
type Stats struct {
	Drafts    int
	Ready     int
	Published int
	Total     int
}
