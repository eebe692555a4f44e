package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/FranksOps/gscrape/internal/storage"
	"github.com/google/uuid"
)

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv("GSCRAPE_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: GSCRAPE_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	b, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create Postgres backend: %v", err)
	}
	defer b.Close()

	now := time.Now().UTC()
	runID := uuid.NewString()

	rec := &storage.Record{
		ID:        uuid.NewString(),
		RunID:     runID,
		Endpoint:  "web",
		Query:     "ruby",
		Page:      1,
		Rank:      1,
		Title:     "Ruby Programming Language",
		URL:       "http://www.ruby-lang.org/",
		Summary:   "A dynamic language",
		CachedURL: "http://webcache.example.com/search?q=cache:abc",
		CreatedAt: now,
	}
	second := &storage.Record{
		ID:        uuid.NewString(),
		RunID:     runID,
		Endpoint:  "web",
		Query:     "ruby",
		Page:      1,
		Rank:      2,
		URL:       "http://en.wikipedia.org/wiki/Ruby",
		CreatedAt: now,
	}

	if err := b.Save(ctx, rec, second); err != nil {
		t.Fatalf("Failed to save records: %v", err)
	}

	records, err := b.Query(ctx, storage.Filter{RunID: runID})
	if err != nil {
		t.Fatalf("Failed to query records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	got := records[0]
	if got.ID != rec.ID || got.Title != rec.Title || got.CachedURL != rec.CachedURL {
		t.Errorf("Unexpected record %+v", got)
	}
	// timestamps lose sub-microsecond precision
	if got.CreatedAt.Unix() != rec.CreatedAt.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", rec.CreatedAt, got.CreatedAt)
	}

	limited, err := b.Query(ctx, storage.Filter{RunID: runID, URLContains: "wikipedia", Limit: 5})
	if err != nil {
		t.Fatalf("Failed to query with url filter: %v", err)
	}
	if len(limited) != 1 || limited[0].Rank != 2 {
		t.Errorf("Unexpected url filter result %v", limited)
	}
}
