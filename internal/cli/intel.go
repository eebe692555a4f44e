package cli

import (
	"fmt"
	"strings"

	"github.com/FranksOps/gscrape/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	intelFlags       queryFlags
	intelTerms       []string
	intelLimit       int
	intelConcurrency int
	intelJSON        bool
)

var intelCmd = &cobra.Command{
	Use:   "intel [query...]",
	Short: "Search, fetch every result page and report where terms occur",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIntel,
}

func init() {
	intelFlags.register(intelCmd)
	f := intelCmd.Flags()
	f.StringSliceVarP(&intelTerms, "terms", "t", nil, "terms to look for in result pages")
	f.IntVarP(&intelLimit, "limit", "n", 10, "result pages to analyze")
	f.IntVar(&intelConcurrency, "concurrency", 4, "result pages fetched at once")
	f.BoolVar(&intelJSON, "json", false, "output findings as JSON")
	_ = intelCmd.MarkFlagRequired("terms")
	rootCmd.AddCommand(intelCmd)
}

func runIntel(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	fetcher, err := newFetcher(cfg.Fetch, logger)
	if err != nil {
		return err
	}
	provider, err := intelFlags.provider(cfg.Search, fetcher, logger)
	if err != nil {
		return err
	}

	p := pipeline.Pipeline{
		Provider:    provider,
		Fetcher:     fetcher,
		Concurrency: intelConcurrency,
		Logger:      logger,
	}
	findings, err := p.Run(ctx, query, intelTerms, intelLimit)
	if err != nil {
		return err
	}

	if intelJSON {
		return writeJSON(cmd.OutOrStdout(), findings)
	}
	renderFindings(cmd.OutOrStdout(), fmt.Sprintf("Term matches for %q", query), findings)
	return nil
}
