//go:build integration

package test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FranksOps/gscrape/internal/harvest"
	"github.com/FranksOps/gscrape/internal/report"
	"github.com/FranksOps/gscrape/internal/serp"
	"github.com/FranksOps/gscrape/internal/storage"
	"github.com/FranksOps/gscrape/internal/storage/sqlite"
	"github.com/FranksOps/gscrape/pkg/fingerprint"
	"github.com/FranksOps/gscrape/pkg/proxy"
	"github.com/FranksOps/gscrape/pkg/scraper"
	"github.com/FranksOps/gscrape/pkg/search"
	"github.com/FranksOps/gscrape/pkg/useragent"
)

// resultsPage renders perPage classic results starting after start.
func resultsPage(query string, start, perPage, total int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="res"><ol>`)
	for i := start; i < min(start+perPage, total); i++ {
		fmt.Fprintf(&b, `<li class="g"><h3 class="r"><a href="http://site%d.example/%s">%s result %d</a></h3><div class="s">Summary %d.</div></li>`,
			i%3, query, query, i+1, i+1)
	}
	b.WriteString(`</ol></div></body></html>`)
	return b.String()
}

func searchHandler(total int, hits *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.URL.Path != search.WebPath {
			http.NotFound(w, r)
			return
		}
		p := r.URL.Query()
		start, _ := strconv.Atoi(p.Get("start"))
		num, _ := strconv.Atoi(p.Get("num"))
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, resultsPage(p.Get("q"), start, num, total))
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIntegration_HarvestToSQLite(t *testing.T) {
	ts := httptest.NewServer(searchHandler(25, nil))
	defer ts.Close()

	fetcher, err := scraper.New(scraper.Config{
		Timeout:     5 * time.Second,
		Fingerprint: fingerprint.ProfileGo,
	}, quietLogger())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	backend, err := sqlite.New(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer backend.Close()

	provider := &serp.Web{
		Options: search.WebOptions{Options: search.Options{SearchHost: ts.Listener.Addr().String(), Language: "en"}},
		Fetcher: fetcher,
		Logger:  quietLogger(),
	}
	h := harvest.New(harvest.Config{
		Provider: provider,
		Backend:  backend,
		MaxPages: 5,
		RunID:    "integration",
	}, quietLogger())

	summary, err := h.Run(context.Background(), []string{"ruby", "golang"})
	if err != nil {
		t.Fatalf("harvest failed: %v", err)
	}
	// 25 results: pages of 10, 10, 5, then an empty page ends the walk
	if summary.Pages != 6 || summary.Results != 50 {
		t.Errorf("unexpected summary %+v", summary)
	}

	records, err := backend.Query(context.Background(), storage.Filter{RunID: "integration", Query: "ruby"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 25 {
		t.Fatalf("expected 25 ruby records, got %d", len(records))
	}
	ranks := map[int]bool{}
	for _, r := range records {
		ranks[r.Rank] = true
	}
	for rank := 1; rank <= 25; rank++ {
		if !ranks[rank] {
			t.Errorf("missing rank %d", rank)
		}
	}

	all, err := backend.Query(context.Background(), storage.Filter{RunID: "integration"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	s := report.GenerateSummary(all, 0)
	if s.TotalResults != 50 || s.Queries["golang"] != 25 || len(s.TopDomains) != 3 {
		t.Errorf("unexpected report summary %+v", s)
	}
}

func TestIntegration_ProxyRotation(t *testing.T) {
	var proxyHits int32
	proxySrv := httptest.NewServer(searchHandler(3, &proxyHits))
	defer proxySrv.Close()

	pool := proxy.NewPool(proxy.Config{})
	if err := pool.Add(proxySrv.URL); err != nil {
		t.Fatalf("failed to add proxy: %v", err)
	}

	fetcher, err := scraper.New(scraper.Config{
		Timeout:     5 * time.Second,
		Fingerprint: fingerprint.ProfileGo,
		Proxies:     pool,
		UserAgents:  useragent.Fixed("IntegrationTest-UA"),
	}, quietLogger())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	// The default host is only reachable through the proxy.
	q, err := search.NewWebQuery(search.WebOptions{Options: search.Options{Query: "ruby", Language: "en"}}, fetcher, quietLogger())
	if err != nil {
		t.Fatalf("failed to build query: %v", err)
	}
	page, err := q.FirstPage(context.Background())
	if err != nil {
		t.Fatalf("fetch through proxy failed: %v", err)
	}
	if len(page) != 3 {
		t.Errorf("expected 3 results, got %d", len(page))
	}
	if atomic.LoadInt32(&proxyHits) == 0 {
		t.Error("expected proxy server to be hit")
	}

	stats := pool.Stats()
	if len(stats) != 1 || stats[0].Successes != 1 {
		t.Errorf("expected one recorded proxy success, got %+v", stats)
	}
}

func TestIntegration_CookieJarPersistence(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") == "" {
			http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "123456", Path: "/"})
			fmt.Fprint(w, resultsPage("ruby", 0, 10, 20))
			return
		}
		cookie, err := r.Cookie("session_id")
		if err != nil || cookie.Value != "123456" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, resultsPage("ruby", 10, 10, 20))
	}))
	defer ts.Close()

	fetcher, err := scraper.New(scraper.Config{
		Timeout:      5 * time.Second,
		Fingerprint:  fingerprint.ProfileGo,
		UseCookieJar: true,
	}, quietLogger())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	q, err := search.NewWebQuery(search.WebOptions{Options: search.Options{Query: "ruby", SearchHost: ts.Listener.Addr().String(), Language: "en"}}, fetcher, quietLogger())
	if err != nil {
		t.Fatalf("failed to build query: %v", err)
	}
	pages, err := q.Pages(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("expected the session cookie to carry over: %v", err)
	}
	if len(pages[1]) != 10 || pages[1][0].Rank != 11 {
		t.Errorf("unexpected second page %+v", pages[1])
	}
}

func TestIntegration_ChallengePageBlocksHarvest(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `<html><body>cf-browser-verification</body></html>`)
	}))
	defer ts.Close()

	fetcher, err := scraper.New(scraper.Config{Timeout: 5 * time.Second, Fingerprint: fingerprint.ProfileGo}, quietLogger())
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	h := harvest.New(harvest.Config{
		Provider: &serp.Web{
			Options: search.WebOptions{Options: search.Options{SearchHost: ts.Listener.Addr().String(), Language: "en"}},
			Fetcher: fetcher,
		},
	}, quietLogger())

	_, err = h.Run(context.Background(), []string{"ruby"})
	var blocked *search.BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if blocked.Source != "Cloudflare" {
		t.Errorf("expected Cloudflare source, got %q", blocked.Source)
	}
}
