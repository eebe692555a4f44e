package harvest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/FranksOps/gscrape/internal/serp"
	"github.com/FranksOps/gscrape/internal/storage"
	"github.com/FranksOps/gscrape/pkg/search"
)

type memBackend struct {
	mu      sync.Mutex
	records []*storage.Record
}

func (m *memBackend) Save(ctx context.Context, records ...*storage.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *memBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return filter.Apply(m.records), nil
}

func (m *memBackend) Close() error { return nil }

// totals maps a query to the number of results the fake upstream holds for
// it; the query "blocked" gets a block page.
func ajaxProvider(totals map[string]int) serp.Provider {
	fetcher := search.FetcherFunc(func(ctx context.Context, req search.Request) (*search.Document, error) {
		q := req.URL.Query().Get("q")
		if q == "blocked" {
			return nil, &search.BlockedError{URL: req.URL.String(), Source: "Google"}
		}
		start, _ := strconv.Atoi(req.URL.Query().Get("start"))

		var items []string
		for i := start; i < min(start+search.AJAXResultsPerPage, totals[q]); i++ {
			items = append(items, fmt.Sprintf(`{"title":"%s %d","unescapedUrl":"http://r%d.example/"}`, q, i+1, i+1))
		}
		body := `cb({"results":[` + strings.Join(items, ",") + `]})`
		return &search.Document{URL: req.URL, StatusCode: http.StatusOK, Body: []byte(body)}, nil
	})
	return &serp.AJAX{Fetcher: fetcher}
}

func TestHarvester_Run(t *testing.T) {
	backend := &memBackend{}
	h := New(Config{
		Provider: ajaxProvider(map[string]int{"ruby": 30, "go": 5}),
		Backend:  backend,
		MaxPages: 2,
		RunID:    "run-1",
	}, nil)

	summary, err := h.Run(context.Background(), []string{"ruby", " ruby ", "", "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.RunID != "run-1" || summary.Queries != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}
	// ruby: two full pages; go: one page of 5, then the empty page ends it
	if summary.Pages != 3 || summary.Results != 21 {
		t.Errorf("expected 3 pages and 21 results, got %+v", summary)
	}
	if summary.Failed != 0 {
		t.Errorf("expected no failures, got %d", summary.Failed)
	}

	ruby, _ := backend.Query(context.Background(), storage.Filter{Query: "ruby"})
	if len(ruby) != 16 {
		t.Fatalf("expected 16 ruby records, got %d", len(ruby))
	}
	pages := map[int]int{}
	for _, r := range ruby {
		pages[r.Page]++
		if r.RunID != "run-1" || r.Endpoint != serp.EndpointAJAX {
			t.Errorf("unexpected record tags %+v", r)
		}
	}
	if pages[1] != 8 || pages[2] != 8 {
		t.Errorf("expected 8 records on each page, got %v", pages)
	}
}

func TestHarvester_BlockAbortsRun(t *testing.T) {
	h := New(Config{
		Provider:    ajaxProvider(map[string]int{"ruby": 8}),
		Concurrency: 1,
	}, nil)

	summary, err := h.Run(context.Background(), []string{"blocked", "ruby"})
	if !errors.Is(err, search.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}
	if summary.Failed == 0 {
		t.Errorf("expected the blocked query to be counted, got %+v", summary)
	}
}

func TestHarvester_ContinueOnBlock(t *testing.T) {
	backend := &memBackend{}
	h := New(Config{
		Provider:        ajaxProvider(map[string]int{"ruby": 8}),
		Backend:         backend,
		ContinueOnBlock: true,
	}, nil)

	summary, err := h.Run(context.Background(), []string{"blocked", "ruby"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Failed != 1 || summary.Results != 8 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if len(backend.records) != 8 {
		t.Errorf("expected 8 saved records, got %d", len(backend.records))
	}
}

func TestNew_Defaults(t *testing.T) {
	h := New(Config{}, nil)
	if h.cfg.MaxPages != 1 || h.cfg.Concurrency != 3 {
		t.Errorf("unexpected defaults %+v", h.cfg)
	}
	if h.RunID() == "" {
		t.Error("expected a generated run id")
	}
}
