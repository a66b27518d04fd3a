package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
)

var (
	// ErrNotFound signals that no article matches the requested id.
	ErrNotFound = errors.New("article not found")
	// ErrStatusConflict signals that the article is no longer in the
	// status the transition requires. The lifecycle only moves forward,
	// so a conflicting row is never rewritten.
	ErrStatusConflict = errors.New("article status conflict")
)

var identExpr = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const articleColumns = "id, title, description, content, badge, source_url, image_url, status, published_at, created_at, updated_at"

// PostgresStore persists articles and owns their status transitions.
// Schema and table come from configuration and are validated once at
// construction; all values travel through placeholders.
type PostgresStore struct {
	db    *sql.DB
	table string
	sb    sq.StatementBuilderType
}

var _ ports.ArticleStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB with a validated schema-qualified table.
func NewPostgresStore(db *sql.DB, schema, table string) (*PostgresStore, error) {
	if !identExpr.MatchString(schema) {
		return nil, fmt.Errorf("invalid schema identifier %q", schema)
	}
	if !identExpr.MatchString(table) {
		return nil, fmt.Errorf("invalid table identifier %q", table)
	}

	return &PostgresStore{
		db:    db,
		table: schema + "." + table,
		sb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

// ListByStatus returns up to limit articles in the given status, newest first.
func (s *PostgresStore) ListByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Article, error) {
	query, args, err := s.sb.
		Select(articleColumns).
		From(s.table).
		Where(sq.Eq{"status": string(status)}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

// Get loads a single article by id.
func (s *PostgresStore) Get(ctx context.Context, id int64) (domain.Article, error) {
	query, args, err := s.sb.
		Select(articleColumns).
		From(s.table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build get query: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, ErrNotFound
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}

	return article, nil
}

// MarkReady stores the rewritten content and promotes draft -> ready.
func (s *PostgresStore) MarkReady(ctx context.Context, id int64, content string) error {
	query, args, err := s.sb.
		Update(s.table).
		Set("content", content).
		Set("status", string(domain.StatusReady)).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id, "status": string(domain.StatusDraft)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark ready query: %w", err)
	}

	return s.execTransition(ctx, query, args)
}

// MarkPublished promotes ready -> published and stamps the publish time.
func (s *PostgresStore) MarkPublished(ctx context.Context, id int64, publishedAt time.Time) error {
	query, args, err := s.sb.
		Update(s.table).
		Set("status", string(domain.StatusPublished)).
		Set("published_at", publishedAt).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id, "status": string(domain.StatusReady)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark published query: %w", err)
	}

	return s.execTransition(ctx, query, args)
}

// SaveDraft inserts a new draft unless one with the same title already exists.
func (s *PostgresStore) SaveDraft(ctx context.Context, article domain.Article) (bool, error) {
	existsQuery, existsArgs, err := s.sb.
		Select("id").
		From(s.table).
		Where(sq.Eq{"title": article.Title}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var existingID int64
	err = s.db.QueryRowContext(ctx, existsQuery, existsArgs...).Scan(&existingID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("check existing title: %w", err)
	}

	now := time.Now()
	insertQuery, insertArgs, err := s.sb.
		Insert(s.table).
		Columns("title", "description", "content", "badge", "source_url", "image_url", "status", "created_at", "updated_at").
		Values(article.Title, article.Description, article.Content, article.Badge, article.SourceURL, article.ImageURL, string(domain.StatusDraft), now, now).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return false, fmt.Errorf("insert draft: %w", err)
	}

	return true, nil
}

// CountByStatus returns how many articles sit in each lifecycle status.
func (s *PostgresStore) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	query, args, err := s.sb.
		Select("status", "COUNT(*)").
		From(s.table).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[domain.Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return counts, nil
}

func (s *PostgresStore) execTransition(ctx context.Context, query string, args []interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("exec transition: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStatusConflict
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article     domain.Article
		description sql.NullString
		badge       sql.NullString
		sourceURL   sql.NullString
		imageURL    sql.NullString
		status      string
		publishedAt sql.NullTime
	)

	err := row.Scan(
		&article.ID,
		&article.Title,
		&description,
		&article.Content,
		&badge,
		&sourceURL,
		&imageURL,
		&status,
		&publishedAt,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return domain.Article{}, err
	}

	article.Description = description.String
	article.Badge = badge.String
	article.SourceURL = sourceURL.String
	article.ImageURL = imageURL.String
	article.Status = domain.Status(status)
	if publishedAt.Valid {
		t := publishedAt.Time
		article.PublishedAt = &t
	}

	return article, nil
}
