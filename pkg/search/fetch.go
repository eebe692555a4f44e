package search

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Request describes a single GET issued by a query.
type Request struct {
	URL     *url.URL
	Referer string
}

// Document is a fetched response body plus the metadata parsers need.
type Document struct {
	URL        *url.URL
	StatusCode int
	Header     http.Header
	Body       []byte
}

// HTML parses the body into a goquery document.
func (d *Document) HTML() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(d.Body))
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	return doc, nil
}

// Fetcher retrieves documents. Implementations return *TransportError for
// network failures and non-2xx responses and must honour ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Document, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (*Document, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*Document, error) {
	return f(ctx, req)
}

// HTMLText returns the plain text of an HTML fragment.
func HTMLText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}
