package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/gscrape/internal/storage"
)

func TestSQLiteBackend(t *testing.T) {
	b, err := New(filepath.Join(t.TempDir(), "gscrape.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer b.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	first := &storage.Record{
		ID:         "rec1",
		RunID:      "run1",
		Endpoint:   "web",
		Query:      "ruby",
		Page:       1,
		Rank:       1,
		Title:      "Ruby Programming Language",
		URL:        "http://www.ruby-lang.org/",
		Summary:    "A dynamic language",
		CachedURL:  "http://webcache.example.com/search?q=cache:abc",
		SimilarURL: "http://www.google.com/search?q=related:www.ruby-lang.org/",
		CreatedAt:  now,
	}
	second := &storage.Record{
		ID:        "rec2",
		RunID:     "run1",
		Endpoint:  "web",
		Query:     "ruby",
		Page:      1,
		Rank:      2,
		Title:     "Ruby - Wikipedia",
		URL:       "http://en.wikipedia.org/wiki/Ruby",
		CreatedAt: now,
	}
	old := &storage.Record{
		ID:        "rec3",
		RunID:     "run0",
		Endpoint:  "ajax",
		Query:     "python",
		Page:      1,
		Rank:      1,
		URL:       "http://www.python.org/",
		CreatedAt: now.Add(-2 * time.Hour),
	}

	if err := b.Save(ctx, first, second, old); err != nil {
		t.Fatalf("Failed to save records: %v", err)
	}

	records, err := b.Query(ctx, storage.Filter{RunID: "run1"})
	if err != nil {
		t.Fatalf("Failed to query records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	got := records[0]
	if got.ID != first.ID || got.Rank != 1 {
		t.Errorf("Expected rank-ordered results, got %+v", got)
	}
	if got.Title != first.Title || got.URL != first.URL || got.Summary != first.Summary {
		t.Errorf("Unexpected record contents %+v", got)
	}
	if got.CachedURL != first.CachedURL || got.SimilarURL != first.SimilarURL {
		t.Errorf("Unexpected optional urls %+v", got)
	}
	if got.CreatedAt.Unix() != first.CreatedAt.Unix() {
		t.Errorf("Expected CreatedAt %v, got %v", first.CreatedAt, got.CreatedAt)
	}
	if records[1].CachedURL != "" {
		t.Errorf("Expected empty cached url, got %q", records[1].CachedURL)
	}

	past := now.Add(-time.Hour)
	recent, err := b.Query(ctx, storage.Filter{Since: &past})
	if err != nil {
		t.Fatalf("Failed to query with Since: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("Expected 2 recent records, got %d", len(recent))
	}

	byURL, err := b.Query(ctx, storage.Filter{URLContains: "python.org"})
	if err != nil {
		t.Fatalf("Failed to query by url: %v", err)
	}
	if len(byURL) != 1 || byURL[0].Endpoint != "ajax" {
		t.Errorf("Unexpected url query result %v", byURL)
	}

	paged, err := b.Query(ctx, storage.Filter{Offset: 2})
	if err != nil {
		t.Fatalf("Failed to query with offset: %v", err)
	}
	if len(paged) != 1 || paged[0].ID != "rec3" {
		t.Errorf("Unexpected offset result %v", paged)
	}
}
