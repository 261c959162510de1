package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordColumns = `
	id::text, isbn, isbn_10, isbn_13, title, subtitle, authors, publisher,
	published_date, description, page_count, categories, language,
	thumbnail, small_thumbnail, preview_link, info_link,
	average_rating, ratings_count, maturity_rating, data_source,
	created_at, updated_at`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanRecord(row pgx.Row) (Record, error) {
	var b Record
	err := row.Scan(
		&b.ID, &b.ISBN, &b.ISBN10, &b.ISBN13, &b.Title, &b.Subtitle, &b.Authors, &b.Publisher,
		&b.PublishedDate, &b.Description, &b.PageCount, &b.Categories, &b.Language,
		&b.Thumbnail, &b.SmallThumbnail, &b.PreviewLink, &b.InfoLink,
		&b.AverageRating, &b.RatingsCount, &b.MaturityRating, &b.DataSource,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (Record, error) {
	query := `SELECT ` + recordColumns + ` FROM books WHERE isbn = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanRecord(r.db.QueryRow(timeoutCtx, query, isbn))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get book %s: %w", isbn, err)
	}
	return b, nil
}

// Create inserts rec. If the ISBN already exists the insert is skipped and
// the stored row is returned unchanged.
func (r *PostgresRepo) Create(ctx context.Context, rec *Record) (Record, error) {
	query := `
		INSERT INTO books (isbn, isbn_10, isbn_13, title, subtitle, authors, publisher,
		                   published_date, description, page_count, categories, language,
		                   thumbnail, small_thumbnail, preview_link, info_link,
		                   average_rating, ratings_count, maturity_rating, data_source,
		                   created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6::text[], '{}'), $7, $8, $9, $10,
		        COALESCE($11::text[], '{}'), $12, $13, $14, $15, $16, $17, $18, $19, $20,
		        NOW(), NOW())
		ON CONFLICT (isbn) DO NOTHING
		RETURNING ` + recordColumns

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanRecord(r.db.QueryRow(timeoutCtx, query,
		rec.ISBN, rec.ISBN10, rec.ISBN13, rec.Title, rec.Subtitle, rec.Authors, rec.Publisher,
		rec.PublishedDate, rec.Description, rec.PageCount, rec.Categories, rec.Language,
		rec.Thumbnail, rec.SmallThumbnail, rec.PreviewLink, rec.InfoLink,
		rec.AverageRating, rec.RatingsCount, rec.MaturityRating, rec.DataSource,
	))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("create book %s: %w", rec.ISBN, err)
	}
	// lost the race to a concurrent create
	return r.GetByISBN(ctx, rec.ISBN)
}

func (r *PostgresRepo) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT ` + recordColumns + ` FROM books ORDER BY created_at DESC LIMIT $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		b, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var n int
	err := r.db.QueryRow(timeoutCtx, "SELECT COUNT(*) FROM books").Scan(&n)
	return n, err
}

// AttemptPostgresRepo stores resolution attempts in search_history.
type AttemptPostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewAttemptPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *AttemptPostgresRepo {
	return &AttemptPostgresRepo{db: db, timeout: timeout}
}

func (r *AttemptPostgresRepo) Create(ctx context.Context, a *Attempt) error {
	const sql = `
		INSERT INTO search_history (isbn, found, response_time_ms, data_source, search_time)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id::text, search_time`

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.db.QueryRow(timeoutCtx, sql, a.ISBN, a.Found, a.ResponseTimeMS, a.DataSource).
		Scan(&a.ID, &a.SearchedAt)
}

func (r *AttemptPostgresRepo) ListRecent(ctx context.Context, limit int) ([]Attempt, error) {
	const query = `
		SELECT id::text, isbn, search_time, found, response_time_ms, data_source
		FROM search_history
		ORDER BY search_time DESC
		LIMIT $1`

	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Attempt, 0, limit)
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.ISBN, &a.SearchedAt, &a.Found, &a.ResponseTimeMS, &a.DataSource); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AttemptPostgresRepo) Count(ctx context.Context, f AttemptFilter) (int, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var n int
	err := r.db.QueryRow(timeoutCtx,
		"SELECT COUNT(*) FROM search_history WHERE ($1::boolean IS NULL OR found = $1)",
		f.Found,
	).Scan(&n)
	return n, err
}

// AverageResponseTime returns nil when no attempt matches f.
func (r *AttemptPostgresRepo) AverageResponseTime(ctx context.Context, f AttemptFilter) (*float64, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	var avg *float64
	err := r.db.QueryRow(timeoutCtx, `
		SELECT AVG(response_time_ms)::float8
		FROM search_history
		WHERE response_time_ms IS NOT NULL AND ($1::boolean IS NULL OR found = $1)`,
		f.Found,
	).Scan(&avg)
	return avg, err
}
