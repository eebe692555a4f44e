package csvbackend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FranksOps/gscrape/internal/storage"
)

func TestCSVBackend(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "results.csv")

	b, err := New(filePath)
	if err != nil {
		t.Fatalf("Failed to create CSV backend: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()

	older := &storage.Record{
		ID:        "csv1",
		RunID:     "run1",
		Endpoint:  "web",
		Query:     "ruby",
		Page:      1,
		Rank:      1,
		Title:     "Ruby, \"the\" language",
		URL:       "http://www.ruby-lang.org/",
		Summary:   "multi\nline summary",
		CachedURL: "http://webcache.example.com/search?q=cache:x",
		CreatedAt: now.Add(-2 * time.Hour),
	}
	newer := &storage.Record{
		ID:        "csv2",
		RunID:     "run2",
		Endpoint:  "ajax",
		Query:     "go",
		Page:      2,
		Rank:      9,
		URL:       "http://go.dev/",
		CreatedAt: now,
	}

	if err := b.Save(ctx, older); err != nil {
		t.Fatalf("Failed to save record 1: %v", err)
	}
	if err := b.Save(ctx, newer); err != nil {
		t.Fatalf("Failed to save record 2: %v", err)
	}

	all, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(all))
	}
	if all[0].ID != "csv2" {
		t.Errorf("Expected csv2 first, got %s", all[0].ID)
	}

	got := all[1]
	if got.Title != older.Title || got.Summary != older.Summary || got.CachedURL != older.CachedURL {
		t.Errorf("Record did not survive quoting: %+v", got)
	}
	if got.Page != 1 || got.Rank != 1 || !got.CreatedAt.Equal(older.CreatedAt) {
		t.Errorf("Unexpected numeric fields: %+v", got)
	}

	byEndpoint, err := b.Query(ctx, storage.Filter{Endpoint: "ajax"})
	if err != nil {
		t.Fatalf("Failed to query by endpoint: %v", err)
	}
	if len(byEndpoint) != 1 || byEndpoint[0].ID != "csv2" {
		t.Errorf("Unexpected endpoint filter result %v", byEndpoint)
	}

	offset, err := b.Query(ctx, storage.Filter{Offset: 1})
	if err != nil {
		t.Fatalf("Failed to query offset: %v", err)
	}
	if len(offset) != 1 || offset[0].ID != "csv1" {
		t.Errorf("Expected csv1 for offset 1, got %v", offset)
	}

	// headers are written once across reopen
	if err := b.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	b, err = New(filePath)
	if err != nil {
		t.Fatalf("Failed to reopen CSV backend: %v", err)
	}
	defer b.Close()

	reopened, err := b.Query(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("Failed to query after reopen: %v", err)
	}
	if len(reopened) != 2 {
		t.Fatalf("Expected 2 records after reopen, got %d", len(reopened))
	}
}
