package cli

import (
	"fmt"
	"strings"

	"github.com/FranksOps/gscrape/internal/serp"
	"github.com/FranksOps/gscrape/internal/storage"
	"github.com/FranksOps/gscrape/pkg/search"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	searchFlags queryFlags
	searchPages int
	searchJSON  bool

	ajaxFlags queryFlags
	ajaxPages int
	ajaxJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search and print organic results",
	Long: `Builds a query from the arguments and flags, walks the requested number
of result pages and prints the organic results. Results are archived when a
storage backend is configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, args, &searchFlags, cfg.Search.Endpoint, searchPages, searchJSON)
	},
}

var ajaxCmd = &cobra.Command{
	Use:   "ajax [query...]",
	Short: "Search the JSON endpoint and print results",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, args, &ajaxFlags, serp.EndpointAJAX, ajaxPages, ajaxJSON)
	},
}

func init() {
	searchFlags.register(searchCmd)
	searchCmd.Flags().IntVarP(&searchPages, "pages", "p", 1, "number of result pages to walk")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)

	ajaxFlags.register(ajaxCmd)
	ajaxCmd.Flags().IntVarP(&ajaxPages, "pages", "p", 1, "number of result pages to walk")
	ajaxCmd.Flags().BoolVar(&ajaxJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(ajaxCmd)
}

func runQuery(cmd *cobra.Command, args []string, flags *queryFlags, endpoint string, pages int, asJSON bool) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	fetcher, err := newFetcher(cfg.Fetch, logger)
	if err != nil {
		return err
	}

	sc := cfg.Search
	sc.Endpoint = endpoint
	provider, err := flags.provider(sc, fetcher, logger)
	if err != nil {
		return err
	}
	pager, err := provider.Pager(query)
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if backend != nil {
		defer backend.Close()
	}
	runID := uuid.NewString()

	var results []search.Result
	index := 0
	for page, err := range pager.All(ctx) {
		index++
		if err != nil {
			return fmt.Errorf("page %d: %w", index, err)
		}
		results = append(results, page...)

		if backend != nil {
			records := make([]*storage.Record, len(page))
			for i, r := range page {
				records[i] = storage.NewRecord(runID, provider.Endpoint(), query, index, r)
			}
			if err := backend.Save(ctx, records...); err != nil {
				logger.Error("failed to save results", "page", index, "err", err)
			}
		}
		if index >= pages {
			break
		}
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), toJSON(results))
	}
	renderResults(cmd.OutOrStdout(), fmt.Sprintf("Results for %q", query), results)
	return nil
}
