package storage

import (
	"context"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/FranksOps/gscrape/pkg/search"
	"github.com/google/uuid"
)

// Record is one archived search result.
type Record struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Endpoint   string    `json:"endpoint"` // "web" or "ajax"
	Query      string    `json:"query"`
	Page       int       `json:"page"`
	Rank       int       `json:"rank"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Summary    string    `json:"summary"`
	CachedURL  string    `json:"cached_url,omitempty"`
	SimilarURL string    `json:"similar_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRecord builds a record for r with a fresh ID.
func NewRecord(runID, endpoint, query string, page int, r search.Result) *Record {
	return &Record{
		ID:         uuid.NewString(),
		RunID:      runID,
		Endpoint:   endpoint,
		Query:      query,
		Page:       page,
		Rank:       r.Rank,
		Title:      r.Title,
		URL:        urlString(r.URL),
		Summary:    r.Summary,
		CachedURL:  urlString(r.CachedURL),
		SimilarURL: urlString(r.SimilarURL),
		CreatedAt:  time.Now().UTC(),
	}
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

// Filter selects archived records. Zero fields match everything.
type Filter struct {
	RunID    string
	Query    string
	Endpoint string
	// URLContains matches records whose URL contains the substring.
	URLContains string
	Since       *time.Time
	Limit       int
	Offset      int
}

// Match reports whether r satisfies every set field of f, ignoring Limit and
// Offset.
func (f Filter) Match(r *Record) bool {
	switch {
	case f.RunID != "" && r.RunID != f.RunID:
		return false
	case f.Query != "" && r.Query != f.Query:
		return false
	case f.Endpoint != "" && r.Endpoint != f.Endpoint:
		return false
	case f.URLContains != "" && !strings.Contains(r.URL, f.URLContains):
		return false
	case f.Since != nil && r.CreatedAt.Before(*f.Since):
		return false
	}
	return true
}

// Apply filters records in memory and orders them newest first, then by
// rank, before applying Offset and Limit. Backends without a query engine
// use it.
func (f Filter) Apply(records []*Record) []*Record {
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b *Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return a.Rank - b.Rank
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*Record{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}

// Backend archives records.
type Backend interface {
	Save(ctx context.Context, records ...*Record) error
	Query(ctx context.Context, filter Filter) ([]*Record, error)
	Close() error
}
