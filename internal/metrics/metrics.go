package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gscrape_fetch_requests_total",
			Help: "Total number of HTTP fetches issued",
		},
		[]string{"host", "status", "blocked", "block_source"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gscrape_fetch_duration_seconds",
			Help:    "Duration of HTTP fetches in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"host"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gscrape_fetch_bytes_total",
			Help: "Total bytes downloaded",
		},
		[]string{"host"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gscrape_proxy_failures_total",
			Help: "Total number of requests that failed through a proxy",
		},
		[]string{"proxy_url"},
	)

	PagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gscrape_pages_total",
			Help: "Result pages loaded, by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	ResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gscrape_results_total",
			Help: "Results parsed from loaded pages",
		},
		[]string{"endpoint"},
	)
)

// Fetch summarizes one HTTP fetch.
type Fetch struct {
	StatusCode  int
	Err         error
	Blocked     bool
	BlockSource string
	Duration    time.Duration
	Bytes       int
}

// RecordFetch updates the fetch metrics for host.
func RecordFetch(host string, f Fetch) {
	status := strconv.Itoa(f.StatusCode)
	if f.Err != nil && f.StatusCode == 0 {
		status = "error"
	}

	FetchRequestsTotal.WithLabelValues(host, status, strconv.FormatBool(f.Blocked), f.BlockSource).Inc()
	FetchDuration.WithLabelValues(host).Observe(f.Duration.Seconds())
	FetchBytesTotal.WithLabelValues(host).Add(float64(f.Bytes))
}

// RecordPage counts a loaded result page. err is the load error, if any.
func RecordPage(endpoint string, results int, err error) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case results == 0:
		outcome = "empty"
	}
	PagesTotal.WithLabelValues(endpoint, outcome).Inc()
	ResultsTotal.WithLabelValues(endpoint).Add(float64(results))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv *http.Server
}

// Start begins listening on port in the background.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "port", port, "err", err)
		}
	}()
	logger.Info("metrics server listening", "port", port)

	return &Server{srv: srv}
}

// Stop shuts the server down, waiting at most five seconds.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
