package harvest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/FranksOps/gscrape/internal/metrics"
	"github.com/FranksOps/gscrape/internal/serp"
	"github.com/FranksOps/gscrape/internal/storage"
	"github.com/FranksOps/gscrape/pkg/search"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config provides parameters for a harvest run.
type Config struct {
	Provider serp.Provider
	Backend  storage.Backend
	// MaxPages bounds the pages walked per query (0 = default 1)
	MaxPages int
	// Concurrency is the number of queries in flight (0 = default 3)
	Concurrency int
	// RunID tags saved records; a fresh UUID is used when empty.
	RunID string
	// ContinueOnBlock keeps the other queries running after the upstream
	// blocks one of them.
	ContinueOnBlock bool
}

// Summary counts what a run harvested.
type Summary struct {
	RunID   string `json:"run_id"`
	Queries int    `json:"queries"`
	Pages   int    `json:"pages"`
	Results int    `json:"results"`
	Failed  int    `json:"failed"`
}

// Harvester walks the result pages of several queries concurrently and
// archives every result.
type Harvester struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	summary Summary
}

func New(cfg Config, logger *slog.Logger) *Harvester {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{cfg: cfg, logger: logger}
}

func (h *Harvester) RunID() string {
	return h.cfg.RunID
}

// Run harvests every distinct query. Query failures are logged and counted;
// a block aborts the run unless ContinueOnBlock is set.
func (h *Harvester) Run(ctx context.Context, queries []string) (Summary, error) {
	h.summary = Summary{RunID: h.cfg.RunID}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(h.cfg.Concurrency)

	for _, q := range dedupe(queries) {
		h.add(func(s *Summary) { s.Queries++ })
		g.Go(func() error {
			err := h.harvest(gCtx, q)
			if err == nil {
				return nil
			}
			h.add(func(s *Summary) { s.Failed++ })
			if errors.Is(err, search.ErrBlocked) && !h.cfg.ContinueOnBlock {
				return err
			}
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			h.logger.Error("query failed", "query", q, "err", err)
			return nil
		})
	}

	err := g.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.summary, err
}

func (h *Harvester) harvest(ctx context.Context, query string) error {
	endpoint := h.cfg.Provider.Endpoint()

	pager, err := h.cfg.Provider.Pager(query)
	if err != nil {
		return err
	}

	index := 0
	for page, err := range pager.All(ctx) {
		index++
		if err != nil {
			metrics.RecordPage(endpoint, 0, err)
			return err
		}
		metrics.RecordPage(endpoint, len(page), nil)
		h.logger.Debug("harvested page", "query", query, "page", index, "results", len(page))

		if h.cfg.Backend != nil {
			records := make([]*storage.Record, len(page))
			for i, r := range page {
				records[i] = storage.NewRecord(h.cfg.RunID, endpoint, query, index, r)
			}
			if err := h.cfg.Backend.Save(ctx, records...); err != nil {
				h.logger.Error("failed to save results", "query", query, "page", index, "err", err)
			}
		}

		h.add(func(s *Summary) {
			s.Pages++
			s.Results += len(page)
		})

		if index >= h.cfg.MaxPages {
			break
		}
	}
	return nil
}

func (h *Harvester) add(fn func(*Summary)) {
	h.mu.Lock()
	fn(&h.summary)
	h.mu.Unlock()
}

// dedupe trims queries and drops blanks and repeats, keeping first-seen
// order.
func dedupe(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out
}
