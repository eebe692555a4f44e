package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	AJAXPath           = "/uds/GwebSearch"
	AJAXResultsPerPage = 8

	DefaultSig     = "582c1116317355adf613a6a843f19ece"
	DefaultKey     = "notsupplied"
	DefaultVersion = "1.0"

	ajaxCallback = "google.search.WebSearch.RawCompletion"
)

// AJAXOptions configures a query against the JSON search endpoint.
type AJAXOptions struct {
	Options

	Sig     string
	Key     string
	Version string
}

func (o *AJAXOptions) applyDefaults() {
	if o.Sig == "" {
		o.Sig = DefaultSig
	}
	if o.Key == "" {
		o.Key = DefaultKey
	}
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	if o.Language == "" {
		o.Language = NativeLanguage()
	}
}

// AJAXQuery runs a query against the JSON search endpoint. Pages always hold
// AJAXResultsPerPage results.
type AJAXQuery struct {
	*Pager

	opts    AJAXOptions
	fetcher Fetcher
	logger  *slog.Logger
}

func NewAJAXQuery(opts AJAXOptions, fetcher Fetcher, logger *slog.Logger) (*AJAXQuery, error) {
	if fetcher == nil {
		return nil, errors.New("search: fetcher cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts.applyDefaults()

	q := &AJAXQuery{
		opts:    opts,
		fetcher: fetcher,
		logger:  logger,
	}
	q.Pager = newPager(AJAXResultsPerPage, q.loadPage)
	return q, nil
}

// AJAXQueryFromURL builds a query from an existing endpoint URL.
func AJAXQueryFromURL(rawURL string, fetcher Fetcher, logger *slog.Logger) (*AJAXQuery, error) {
	opts, err := ParseAJAXURL(rawURL)
	if err != nil {
		return nil, err
	}
	return NewAJAXQuery(opts, fetcher, logger)
}

func (q *AJAXQuery) Options() AJAXOptions {
	return q.opts
}

func (q *AJAXQuery) Expression() string {
	return q.opts.Expression()
}

func (q *AJAXQuery) SearchHost() string {
	return q.opts.Host()
}

func (q *AJAXQuery) SearchURL() *url.URL {
	p := NewParams()
	p.Set("callback", ajaxCallback)
	p.Set("context", 0)
	p.Set("lstkp", 0)
	p.Set("rsz", "large")
	p.Set("hl", q.opts.Language)
	p.Set("gss", ".com")
	p.Set("q", q.opts.Expression())
	p.Set("sig", q.opts.Sig)
	p.Set("key", q.opts.Key)
	p.Set("v", q.opts.Version)

	return &url.URL{
		Scheme:   "http",
		Host:     q.SearchHost(),
		Path:     AJAXPath,
		RawQuery: p.Encode(),
	}
}

// PageURL returns the endpoint URL for the page at index. The first page
// carries no start parameter.
func (q *AJAXQuery) PageURL(index int) (*url.URL, error) {
	offset, err := ResultOffsetOf(index, AJAXResultsPerPage)
	if err != nil {
		return nil, err
	}
	u := q.SearchURL()
	if index > 1 {
		p := ParseParams(u)
		p.Set("start", offset)
		u.RawQuery = p.Encode()
	}
	return u, nil
}

func (q *AJAXQuery) loadPage(ctx context.Context, index int) (Page, error) {
	u, err := q.PageURL(index)
	if err != nil {
		return nil, err
	}
	q.logger.Debug("fetching ajax results", "url", u.String())
	doc, err := q.fetcher.Fetch(ctx, Request{URL: u})
	if err != nil {
		return nil, err
	}
	page, err := ParseAJAXResults(doc.Body, index, AJAXResultsPerPage)
	if err != nil {
		return nil, err
	}
	q.logger.Debug("parsed ajax page", "page", index, "results", len(page))
	return page, nil
}

// ParseAJAXURL reads the options back out of an endpoint URL. The whole q
// parameter becomes the free-text query.
func ParseAJAXURL(rawURL string) (AJAXOptions, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return AJAXOptions{}, fmt.Errorf("context: %w", err)
	}
	p := ParseParams(u)

	var o AJAXOptions
	o.SearchHost = u.Host
	o.Language = p.Get("hl")
	o.Query = p.Get("q")
	o.Sig = p.Get("sig")
	o.Key = p.Get("key")
	o.Version = p.Get("v")
	return o, nil
}

// ParseAJAXResults decodes the JSON object wrapped in a JSONP callback body.
// Bodies without a results array yield an empty page.
func ParseAJAXResults(body []byte, pageIndex, perPage int) (Page, error) {
	offset, err := ResultOffsetOf(pageIndex, perPage)
	if err != nil {
		return nil, err
	}

	start := bytes.IndexByte(body, '{')
	end := bytes.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return Page{}, nil
	}
	raw := body[start : end+1]
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("search: malformed ajax response")
	}

	results := gjson.GetBytes(raw, "results")
	if !results.IsArray() {
		results = gjson.GetBytes(raw, "responseData.results")
	}
	if !results.IsArray() {
		return Page{}, nil
	}

	page := Page{}
	results.ForEach(func(_, r gjson.Result) bool {
		if len(page) >= perPage {
			return false
		}
		page = append(page, Result{
			Rank:      offset + len(page) + 1,
			Title:     HTMLText(r.Get("title").String()),
			URL:       parseLoose(r.Get("unescapedUrl").String()),
			Summary:   HTMLText(r.Get("content").String()),
			CachedURL: parseLoose(r.Get("cacheUrl").String()),
		})
		return true
	})
	return page, nil
}

// parseLoose parses s, escaping characters that url.Parse rejects.
func parseLoose(s string) *url.URL {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if u, err := url.Parse(s); err == nil {
		return u
	}
	u, err := url.Parse(strings.ReplaceAll(s, " ", "%20"))
	if err != nil {
		return nil
	}
	return u
}
