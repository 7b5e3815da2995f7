package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calvera-dev/showfetch/internal/pipeline"
)

// pgxIface is the subset of pgxpool.Pool we use; pgxmock implements it.
type pgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresProvider implements Provider on PostgreSQL via pgx.
//
// Expected schema:
//
//	CREATE TABLE content_records (
//	    id TEXT PRIMARY KEY,
//	    title TEXT NOT NULL,
//	    original_title TEXT,
//	    url TEXT NOT NULL,
//	    poster TEXT,
//	    backdrop TEXT,
//	    year INT,
//	    rating DOUBLE PRECISION,
//	    genres TEXT[],
//	    countries TEXT[],
//	    language TEXT,
//	    source TEXT NOT NULL,
//	    content_type TEXT,
//	    category TEXT,
//	    created_at TIMESTAMPTZ,
//	    updated_at TIMESTAMPTZ
//	);
type PostgresProvider struct {
	pool pgxIface
}

const upsertRecordSQL = `
	INSERT INTO content_records (
		id, title, original_title, url, poster, backdrop, year, rating,
		genres, countries, language, source, content_type, category,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		original_title = EXCLUDED.original_title,
		url = EXCLUDED.url,
		poster = EXCLUDED.poster,
		backdrop = EXCLUDED.backdrop,
		year = EXCLUDED.year,
		rating = EXCLUDED.rating,
		genres = EXCLUDED.genres,
		countries = EXCLUDED.countries,
		language = EXCLUDED.language,
		content_type = EXCLUDED.content_type,
		category = EXCLUDED.category,
		updated_at = EXCLUDED.updated_at
`

// NewPostgresProvider connects to dsn and pings the server.
func NewPostgresProvider(ctx context.Context, dsn string) (*PostgresProvider, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresProvider{pool: pool}, nil
}

// NewPostgresProviderWithPool wraps an existing pool; used by tests.
func NewPostgresProviderWithPool(pool pgxIface) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

// UpsertRecords writes every record, last write winning per id. Records are
// superseded, not merged, run over run.
func (p *PostgresProvider) UpsertRecords(ctx context.Context, records []pipeline.ContentRecord) (int, error) {
	written := 0
	for _, r := range records {
		_, err := p.pool.Exec(ctx, upsertRecordSQL,
			r.ID, r.Title, r.OriginalTitle, r.CanonicalURL, r.PosterURL,
			r.BackdropURL, r.Year, r.Rating, r.Genres, r.Countries,
			r.Language, r.Source, r.ContentType, string(r.Category),
			r.CreatedAt, r.UpdatedAt,
		)
		if err != nil {
			return written, fmt.Errorf("upsert record %s: %w", r.ID, err)
		}
		written++
	}
	return written, nil
}

// Close releases the connection pool.
func (p *PostgresProvider) Close() error {
	p.pool.Close()
	return nil
}
