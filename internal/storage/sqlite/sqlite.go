package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/FranksOps/gscrape/internal/storage"
	_ "modernc.org/sqlite"
)

var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
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
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS search_results_run ON search_results (run_id);
`

const insert = `
INSERT INTO search_results (
	id, run_id, endpoint, expression, page, result_rank, title, url, summary, cached_url, similar_url, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// New opens a SQLite archive at dsn, creating the schema if needed.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("context: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

// Save writes records in one transaction.
func (b *sqliteBackend) Save(ctx context.Context, records ...*storage.Record) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.ID, r.RunID, r.Endpoint, r.Query, r.Page, r.Rank,
			r.Title, r.URL, r.Summary, r.CachedURL, r.SimilarURL, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("context: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("context: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	query := `SELECT id, run_id, endpoint, expression, page, result_rank, title, url, summary, cached_url, similar_url, created_at FROM search_results WHERE 1=1`
	args := []any{}

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.Query != "" {
		query += ` AND expression = ?`
		args = append(args, filter.Query)
	}
	if filter.Endpoint != "" {
		query += ` AND endpoint = ?`
		args = append(args, filter.Endpoint)
	}
	if filter.URLContains != "" {
		query += ` AND instr(url, ?) > 0`
		args = append(args, filter.URLContains)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC, result_rank ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	defer rows.Close()

	var records []*storage.Record
	for rows.Next() {
		var r storage.Record
		var cached, similar sql.NullString
		err := rows.Scan(
			&r.ID, &r.RunID, &r.Endpoint, &r.Query, &r.Page, &r.Rank,
			&r.Title, &r.URL, &r.Summary, &cached, &similar, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("context: %w", err)
		}
		r.CachedURL, r.SimilarURL = cached.String, similar.String
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	return records, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
