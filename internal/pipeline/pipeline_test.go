package pipeline

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/FranksOps/gscrape/pkg/search"
)

// stubProvider returns fixed results.
type stubProvider struct {
	results []search.Result
}

func (s *stubProvider) Endpoint() string { return "stub" }

func (s *stubProvider) Pager(query string) (*search.Pager, error) { return nil, nil }

func (s *stubProvider) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return s.results[:min(limit, len(s.results))], nil
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("bad url %q: %v", raw, err)
	}
	return u
}

func TestPipeline_Run(t *testing.T) {
	pages := map[string]string{
		"/ruby": `<html><body><p>Ruby has blocks. Blocks yield.</p></body></html>`,
		"/go":   `<html><body><p>Go has goroutines.</p></body></html>`,
	}
	fetcher := search.FetcherFunc(func(ctx context.Context, req search.Request) (*search.Document, error) {
		body, ok := pages[req.URL.Path]
		if !ok {
			return nil, &search.TransportError{URL: req.URL.String(), StatusCode: http.StatusNotFound}
		}
		return &search.Document{URL: req.URL, StatusCode: http.StatusOK, Body: []byte(body)}, nil
	})

	provider := &stubProvider{results: []search.Result{
		{Rank: 1, Title: "Ruby", URL: mustURL(t, "http://a.example/ruby")},
		{Rank: 2, Title: "Missing", URL: mustURL(t, "http://a.example/missing")},
		{Rank: 3, Title: "No link"},
		{Rank: 4, Title: "Go", URL: mustURL(t, "http://b.example/go")},
	}}

	p := Pipeline{Provider: provider, Fetcher: fetcher}
	findings, err := p.Run(context.Background(), "languages", []string{"blocks"}, 10)
	if err != nil {
		t.Fatalf("pipeline run failed: %v", err)
	}
	if len(findings) != 4 {
		t.Fatalf("expected 4 findings, got %d", len(findings))
	}

	for i, f := range findings {
		if f.Rank != i+1 {
			t.Errorf("finding %d has rank %d", i, f.Rank)
		}
	}

	ruby := findings[0]
	if ruby.Error != "" || len(ruby.Matches) != 1 || ruby.Matches[0].Count != 2 {
		t.Errorf("unexpected ruby finding %+v", ruby)
	}
	if ruby.Matches[0].Domain != "a.example" {
		t.Errorf("unexpected domain %q", ruby.Matches[0].Domain)
	}
	if !strings.Contains(findings[1].Error, "404") {
		t.Errorf("expected fetch error on missing page, got %q", findings[1].Error)
	}
	if findings[2].Error == "" {
		t.Error("expected error for result without URL")
	}
	if findings[3].Error != "" || len(findings[3].Matches) != 0 {
		t.Errorf("expected no matches on go page, got %+v", findings[3])
	}
}

func TestPipeline_Limit(t *testing.T) {
	fetcher := search.FetcherFunc(func(ctx context.Context, req search.Request) (*search.Document, error) {
		return &search.Document{URL: req.URL, Body: []byte("<p>x</p>")}, nil
	})
	provider := &stubProvider{results: []search.Result{
		{Rank: 1, URL: mustURL(t, "http://a.example/")},
		{Rank: 2, URL: mustURL(t, "http://b.example/")},
	}}

	p := Pipeline{Provider: provider, Fetcher: fetcher}
	findings, err := p.Run(context.Background(), "q", []string{"x"}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 1 {
		t.Errorf("expected 1 finding, got %d", len(findings))
	}
}

func TestPipeline_MissingComponents(t *testing.T) {
	if _, err := (&Pipeline{}).Run(context.Background(), "q", nil, 1); err == nil {
		t.Error("expected error without provider")
	}
	if _, err := (&Pipeline{Provider: &stubProvider{}}).Run(context.Background(), "q", nil, 1); err == nil {
		t.Error("expected error without fetcher")
	}
}
