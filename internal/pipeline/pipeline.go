package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/FranksOps/gscrape/internal/analyzer"
	"github.com/FranksOps/gscrape/internal/serp"
	"github.com/FranksOps/gscrape/pkg/search"
	"golang.org/x/sync/errgroup"
)

// Finding is the analysis of one result page.
type Finding struct {
	Rank    int                  `json:"rank"`
	Title   string               `json:"title"`
	URL     string               `json:"url"`
	Matches []analyzer.TermMatch `json:"matches"`
	Error   string               `json:"error,omitempty"`
}

// Pipeline orchestrates the three stages of the intel command: search,
// fetching each result page, and term analysis.
type Pipeline struct {
	Provider serp.Provider
	Fetcher  search.Fetcher
	// Concurrency bounds the result pages fetched at once (0 = default 4)
	Concurrency int
	Logger      *slog.Logger
}

// Run searches query, fetches up to limit result pages and matches terms
// against them. Findings are in rank order; a page that fails to fetch is
// reported in its Finding and does not fail the run.
func (p *Pipeline) Run(ctx context.Context, query string, terms []string, limit int) ([]Finding, error) {
	if p.Provider == nil {
		return nil, errors.New("pipeline: provider is nil")
	}
	if p.Fetcher == nil {
		return nil, errors.New("pipeline: fetcher is nil")
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := p.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	results, err := p.Provider.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	logger.Info("search complete", "query", query, "results", len(results))

	findings := make([]Finding, len(results))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, r := range results {
		findings[i] = Finding{Rank: r.Rank, Title: r.Title}
		if r.URL == nil {
			findings[i].Error = "result has no URL"
			continue
		}
		findings[i].URL = r.URL.String()

		g.Go(func() error {
			f := &findings[i]
			doc, err := p.Fetcher.Fetch(gCtx, search.Request{URL: r.URL})
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				logger.Warn("result fetch failed", "url", f.URL, "err", err)
				f.Error = err.Error()
				return nil
			}
			matches, err := analyzer.AnalyzeDocument(doc, terms)
			if err != nil {
				f.Error = err.Error()
				return nil
			}
			f.Matches = matches
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return findings, err
	}
	return findings, nil
}
