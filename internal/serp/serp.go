package serp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FranksOps/gscrape/pkg/search"
)

// Endpoint names, as stored in storage.Record.Endpoint.
const (
	EndpointWeb  = "web"
	EndpointAJAX = "ajax"
)

// Provider runs query expressions against one search endpoint.
type Provider interface {
	// Endpoint names the endpoint the provider queries.
	Endpoint() string
	// Pager returns a fresh page walker for query.
	Pager(query string) (*search.Pager, error)
	// Search returns up to limit results for query, walking pages until the
	// limit is reached or an empty page is fetched.
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
}

var (
	_ Provider = (*Web)(nil)
	_ Provider = (*AJAX)(nil)
)

// Web queries the classic HTML results endpoint. Options is the template
// for every query; its Query field is replaced per call.
type Web struct {
	Options search.WebOptions
	Fetcher search.Fetcher
	Logger  *slog.Logger
}

func (w *Web) Endpoint() string { return EndpointWeb }

func (w *Web) Pager(query string) (*search.Pager, error) {
	opts := w.Options
	opts.Query = query
	q, err := search.NewWebQuery(opts, w.Fetcher, w.Logger)
	if err != nil {
		return nil, err
	}
	return q.Pager, nil
}

func (w *Web) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return collect(ctx, w, query, limit)
}

// AJAX queries the JSON results endpoint.
type AJAX struct {
	Options search.AJAXOptions
	Fetcher search.Fetcher
	Logger  *slog.Logger
}

func (a *AJAX) Endpoint() string { return EndpointAJAX }

func (a *AJAX) Pager(query string) (*search.Pager, error) {
	opts := a.Options
	opts.Query = query
	q, err := search.NewAJAXQuery(opts, a.Fetcher, a.Logger)
	if err != nil {
		return nil, err
	}
	return q.Pager, nil
}

func (a *AJAX) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return collect(ctx, a, query, limit)
}

// New returns the provider for endpoint.
func New(endpoint string, opts search.Options, fetcher search.Fetcher, logger *slog.Logger) (Provider, error) {
	switch endpoint {
	case EndpointWeb, "":
		return &Web{Options: search.WebOptions{Options: opts}, Fetcher: fetcher, Logger: logger}, nil
	case EndpointAJAX:
		return &AJAX{Options: search.AJAXOptions{Options: opts}, Fetcher: fetcher, Logger: logger}, nil
	}
	return nil, fmt.Errorf("serp: unknown endpoint %q", endpoint)
}

func collect(ctx context.Context, p Provider, query string, limit int) ([]search.Result, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit cannot be negative: %d", limit)
	}
	if limit == 0 {
		return []search.Result{}, nil
	}

	pager, err := p.Pager(query)
	if err != nil {
		return nil, err
	}

	results := make([]search.Result, 0, limit)
	err = pager.Each(ctx, func(page search.Page) error {
		for _, r := range page {
			results = append(results, r)
			if len(results) == limit {
				return search.ErrStop
			}
		}
		return nil
	})
	if err != nil {
		return results, err
	}
	return results, nil
}
