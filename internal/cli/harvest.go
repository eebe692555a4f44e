package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/FranksOps/gscrape/internal/harvest"
	"github.com/spf13/cobra"
)

var (
	harvestFlags queryFlags
	harvestFile  string
	harvestRunID string
	harvestJSON  bool
)

var harvestCmd = &cobra.Command{
	Use:   "harvest [query...]",
	Short: "Walk the result pages of many queries and archive every result",
	Long: `Runs each query given as an argument or listed in --file (one per line)
concurrently, walks up to harvest.max_pages pages per query and saves every
result to the configured storage backend.`,
	RunE: runHarvest,
}

func init() {
	harvestFlags.register(harvestCmd)
	f := harvestCmd.Flags()
	f.StringVarP(&harvestFile, "file", "f", "", "file with one query per line")
	f.StringVar(&harvestRunID, "run-id", "", "tag for the saved records (default random)")
	f.Int("max-pages", 1, "pages walked per query")
	f.Int("concurrency", 3, "queries in flight")
	f.Bool("continue-on-block", false, "keep going after the upstream blocks a query")
	f.BoolVar(&harvestJSON, "json", false, "output the summary as JSON")

	for name, key := range map[string]string{
		"max-pages":         "harvest.max_pages",
		"concurrency":       "harvest.concurrency",
		"continue-on-block": "harvest.continue_on_block",
	} {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	queries := args
	if harvestFile != "" {
		lines, err := readLines(harvestFile)
		if err != nil {
			return err
		}
		queries = append(queries, lines...)
	}
	if len(queries) == 0 {
		return fmt.Errorf("no queries given")
	}

	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if backend == nil {
		logger.Warn("no storage backend configured, results will not be archived")
	} else {
		defer backend.Close()
	}

	fetcher, err := newFetcher(cfg.Fetch, logger)
	if err != nil {
		return err
	}
	provider, err := harvestFlags.provider(cfg.Search, fetcher, logger)
	if err != nil {
		return err
	}

	h := harvest.New(harvest.Config{
		Provider:        provider,
		Backend:         backend,
		MaxPages:        cfg.Harvest.MaxPages,
		Concurrency:     cfg.Harvest.Concurrency,
		RunID:           harvestRunID,
		ContinueOnBlock: cfg.Harvest.ContinueOnBlock,
	}, logger)

	summary, runErr := h.Run(ctx, queries)

	w := cmd.OutOrStdout()
	if harvestJSON {
		if err := writeJSON(w, summary); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(w, headerStyle.Render("Harvest "+summary.RunID))
		fmt.Fprintf(w, "queries: %d  pages: %d  results: %d  failed: %d\n",
			summary.Queries, summary.Pages, summary.Results, summary.Failed)
	}
	return runErr
}

// readLines returns the non-blank lines of path, skipping '#' comments.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	return lines, nil
}
