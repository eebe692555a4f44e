package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/FranksOps/gscrape/internal/report"
	"github.com/FranksOps/gscrape/internal/storage"
	"github.com/spf13/cobra"
)

var (
	reportFormat string
	reportOut    string
	reportTop    int
	reportSince  time.Duration
	reportFilter storage.Filter
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarise archived results",
	RunE:  runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportFormat, "format", "text", "output format: text, json or html")
	f.StringVarP(&reportOut, "out", "o", "", "write the report to a file")
	f.IntVar(&reportTop, "top", report.DefaultTopDomains, "domains listed in the summary")
	f.DurationVar(&reportSince, "since", 0, "only records newer than this")
	f.StringVar(&reportFilter.RunID, "run-id", "", "only records of this run")
	f.StringVar(&reportFilter.Query, "query", "", "only records of this query")
	f.StringVar(&reportFilter.Endpoint, "from", "", "only records from this endpoint")
	f.StringVar(&reportFilter.URLContains, "url-contains", "", "only records whose url contains this text")
	f.IntVar(&reportFilter.Limit, "limit", 0, "maximum records considered")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if backend == nil {
		return fmt.Errorf("report needs a storage backend, set --storage")
	}
	defer backend.Close()

	filter := reportFilter
	if reportSince > 0 {
		since := time.Now().Add(-reportSince)
		filter.Since = &since
	}

	records, err := backend.Query(ctx, filter)
	if err != nil {
		return err
	}
	summary := report.GenerateSummary(records, reportTop)

	var w io.Writer = cmd.OutOrStdout()
	if reportOut != "" {
		f, err := os.Create(reportOut)
		if err != nil {
			return fmt.Errorf("context: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch reportFormat {
	case "json":
		return report.WriteJSON(w, summary)
	case "html":
		return report.WriteHTML(w, summary)
	case "text":
		return report.WriteText(w, summary)
	}
	return fmt.Errorf("unknown report format %q", reportFormat)
}
