package serp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/FranksOps/gscrape/pkg/search"
)

// ajaxPages serves total results across 8-result pages, keyed by the start
// parameter.
func ajaxPages(total int, calls *int32) search.Fetcher {
	return search.FetcherFunc(func(ctx context.Context, req search.Request) (*search.Document, error) {
		atomic.AddInt32(calls, 1)
		start, _ := strconv.Atoi(req.URL.Query().Get("start"))

		var items []string
		for i := start; i < min(start+search.AJAXResultsPerPage, total); i++ {
			items = append(items, fmt.Sprintf(`{"title":"Result %d","unescapedUrl":"http://r%d.example/"}`, i+1, i+1))
		}
		body := `cb({"results":[` + strings.Join(items, ",") + `]})`
		return &search.Document{URL: req.URL, StatusCode: http.StatusOK, Body: []byte(body)}, nil
	})
}

func TestAJAX_SearchStopsAtLimit(t *testing.T) {
	var calls int32
	p := &AJAX{Fetcher: ajaxPages(30, &calls)}

	results, err := p.Search(context.Background(), "ruby", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	if results[9].Rank != 10 || results[9].Title != "Result 10" {
		t.Errorf("unexpected last result %+v", results[9])
	}
	if calls != 2 {
		t.Errorf("expected 2 fetches, got %d", calls)
	}
}

func TestAJAX_SearchEndsOnEmptyPage(t *testing.T) {
	var calls int32
	p := &AJAX{Fetcher: ajaxPages(5, &calls)}

	results, err := p.Search(context.Background(), "ruby", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("expected 5 results, got %d", len(results))
	}
	if calls != 2 {
		t.Errorf("expected 2 fetches, got %d", calls)
	}
}

func TestSearch_Limits(t *testing.T) {
	var calls int32
	p := &AJAX{Fetcher: ajaxPages(30, &calls)}

	if _, err := p.Search(context.Background(), "ruby", -1); err == nil {
		t.Error("expected error for negative limit")
	}
	results, err := p.Search(context.Background(), "ruby", 0)
	if err != nil || len(results) != 0 {
		t.Errorf("expected no results and no error, got %v, %v", results, err)
	}
	if calls != 0 {
		t.Errorf("expected no fetches, got %d", calls)
	}
}

func TestWeb_PagerUsesTemplate(t *testing.T) {
	var seen string
	fetcher := search.FetcherFunc(func(ctx context.Context, req search.Request) (*search.Document, error) {
		seen = req.URL.String()
		return &search.Document{URL: req.URL, StatusCode: http.StatusOK, Body: []byte("<html></html>")}, nil
	})

	p := &Web{
		Options: search.WebOptions{Options: search.Options{Site: "ruby-lang.org", Language: "en"}},
		Fetcher: fetcher,
	}
	pager, err := p.Pager("blocks")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page, err := pager.FirstPage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 0 {
		t.Errorf("expected empty page, got %d results", len(page))
	}
	if !strings.Contains(seen, "q=blocks+site%3Aruby-lang.org") {
		t.Errorf("expected query and site term in %s", seen)
	}
	if p.Options.Query != "" {
		t.Errorf("template options were modified: %q", p.Options.Query)
	}
}

func TestNew(t *testing.T) {
	for endpoint, want := range map[string]string{"": EndpointWeb, "web": EndpointWeb, "ajax": EndpointAJAX} {
		p, err := New(endpoint, search.Options{}, search.FetcherFunc(nil), nil)
		if err != nil {
			t.Fatalf("New(%q): %v", endpoint, err)
		}
		if p.Endpoint() != want {
			t.Errorf("New(%q).Endpoint() = %q, want %q", endpoint, p.Endpoint(), want)
		}
	}
	if _, err := New("images", search.Options{}, nil, nil); err == nil {
		t.Error("expected error for unknown endpoint")
	}
}
