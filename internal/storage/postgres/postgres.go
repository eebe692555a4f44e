package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/gscrape/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS search_results (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	endpoint TEXT NOT NULL,
	expression TEXT NOT NULL,
	page INTEGER NOT NULL,
	result_rank INTEGER NOT NULL,
	title TEXT NOT NULL,
	url TEXT NOT NULL,
	summary TEXT NOT NULL,
	cached_url TEXT,
	similar_url TEXT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS search_results_run ON search_results (run_id);
`

const insert = `
INSERT INTO search_results (
	id, run_id, endpoint, expression, page, result_rank, title, url, summary, cached_url, similar_url, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

// New connects to dsn and creates the schema if needed.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("context: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("context: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

// Save sends all records in one batch.
func (b *postgresBackend) Save(ctx context.Context, records ...*storage.Record) error {
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(insert,
			r.ID, r.RunID, r.Endpoint, r.Query, r.Page, r.Rank,
			r.Title, r.URL, r.Summary, r.CachedURL, r.SimilarURL, r.CreatedAt,
		)
	}

	if err := b.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("context: %w", err)
	}
	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	query := `SELECT id, run_id, endpoint, expression, page, result_rank, title, url, summary, cached_url, similar_url, created_at FROM search_results WHERE 1=1`
	args := []any{}

	arg := func(clause string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(clause, len(args))
	}

	if filter.RunID != "" {
		arg(` AND run_id = $%d`, filter.RunID)
	}
	if filter.Query != "" {
		arg(` AND expression = $%d`, filter.Query)
	}
	if filter.Endpoint != "" {
		arg(` AND endpoint = $%d`, filter.Endpoint)
	}
	if filter.URLContains != "" {
		arg(` AND strpos(url, $%d) > 0`, filter.URLContains)
	}
	if filter.Since != nil {
		arg(` AND created_at >= $%d`, *filter.Since)
	}

	query += ` ORDER BY created_at DESC, result_rank ASC`

	if filter.Limit > 0 {
		arg(` LIMIT $%d`, filter.Limit)
	}
	if filter.Offset > 0 {
		arg(` OFFSET $%d`, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	defer rows.Close()

	var records []*storage.Record
	for rows.Next() {
		var r storage.Record
		var cached, similar *string
		err := rows.Scan(
			&r.ID, &r.RunID, &r.Endpoint, &r.Query, &r.Page, &r.Rank,
			&r.Title, &r.URL, &r.Summary, &cached, &similar, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("context: %w", err)
		}
		if cached != nil {
			r.CachedURL = *cached
		}
		if similar != nil {
			r.SimilarURL = *similar
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	return records, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
