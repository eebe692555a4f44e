package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/FranksOps/gscrape/internal/bypass"
	"github.com/FranksOps/gscrape/internal/metrics"
	"github.com/FranksOps/gscrape/pkg/fingerprint"
	"github.com/FranksOps/gscrape/pkg/httpclient"
	"github.com/FranksOps/gscrape/pkg/proxy"
	"github.com/FranksOps/gscrape/pkg/search"
	"github.com/FranksOps/gscrape/pkg/useragent"
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// Config configures a Fetcher.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	UseCookieJar bool
	// MaxBodyBytes caps how much of a response is read; 0 means no cap.
	MaxBodyBytes int64

	Proxies     *proxy.Pool
	UserAgents  *useragent.Pool
	Fingerprint fingerprint.Profile
	// EnvProxy falls back to HTTP_PROXY and friends when no pooled proxy
	// is in use.
	EnvProxy bool
	// Detectors default to bypass.DefaultDetectors.
	Detectors []bypass.Detector

	// InsecureSkipVerify is for tests against self-signed servers.
	InsecureSkipVerify bool
}

// Fetcher is the default search.Fetcher. It holds one client for its
// lifetime so connections and cookies are reused across pages.
type Fetcher struct {
	config Config
	client *httpclient.Client
	logger *slog.Logger
}

var _ search.Fetcher = (*Fetcher)(nil)

func New(cfg Config, logger *slog.Logger) (*Fetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgents == nil {
		cfg.UserAgents = useragent.NewPool(nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.Detectors == nil {
		cfg.Detectors = bypass.DefaultDetectors()
	}

	// The proxy is chosen per request and carried in the request context.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok && u != nil {
			return u, nil
		}
		if cfg.EnvProxy {
			return http.ProxyFromEnvironment(req)
		}
		return nil, nil
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, fingerprint.Options{
		Proxy:              proxyFunc,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client, logger: logger}, nil
}

// Fetch issues a GET for req. Network failures and non-2xx responses return
// a *search.TransportError; challenge pages return a *search.BlockedError.
// Neither is retried.
func (f *Fetcher) Fetch(ctx context.Context, req search.Request) (*search.Document, error) {
	if req.URL == nil {
		return nil, &search.TransportError{Err: fmt.Errorf("context: request has no URL")}
	}
	target := req.URL.String()
	host := req.URL.Host
	start := time.Now()

	var activeProxy *url.URL
	if f.config.Proxies != nil {
		activeProxy = f.config.Proxies.Next()
		if activeProxy != nil {
			ctx = context.WithValue(ctx, proxyKey, activeProxy)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &search.TransportError{URL: target, Err: err}
	}
	if ua := f.config.UserAgents.Next(); ua != "" {
		httpReq.Header.Set("User-Agent", ua)
	}
	if req.Referer != "" {
		httpReq.Header.Set("Referer", req.Referer)
	}

	resp, err := f.client.Do(ctx, httpReq)
	if err != nil {
		if activeProxy != nil {
			_ = f.config.Proxies.MarkFailure(activeProxy)
			metrics.ProxyFailures.WithLabelValues(activeProxy.Redacted()).Inc()
		}
		metrics.RecordFetch(host, metrics.Fetch{Err: err, Duration: time.Since(start)})
		f.logger.Warn("fetch failed", "url", target, "err", err)
		return nil, &search.TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if activeProxy != nil {
		_ = f.config.Proxies.MarkSuccess(activeProxy)
	}

	var body io.Reader = resp.Body
	if f.config.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.config.MaxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		metrics.RecordFetch(host, metrics.Fetch{StatusCode: resp.StatusCode, Err: err, Duration: time.Since(start)})
		return nil, &search.TransportError{URL: target, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	doc := &search.Document{
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}

	rec := metrics.Fetch{
		StatusCode: resp.StatusCode,
		Duration:   time.Since(start),
		Bytes:      len(data),
	}
	var blocked *search.BlockedError
	if err := bypass.Check(doc, f.config.Detectors); errors.As(err, &blocked) {
		rec.Blocked, rec.BlockSource = true, blocked.Source
		metrics.RecordFetch(host, rec)
		f.logger.Warn("challenge page served", "url", target, "status", resp.StatusCode, "source", blocked.Source)
		return nil, blocked
	}
	metrics.RecordFetch(host, rec)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("unexpected status", "url", target, "status", resp.StatusCode)
		return nil, &search.TransportError{URL: target, StatusCode: resp.StatusCode}
	}

	f.logger.Debug("fetched", "url", target, "status", resp.StatusCode, "bytes", len(data), "duration", rec.Duration)
	return doc, nil
}
