package cli

import (
	"regexp"
	"strings"

	"github.com/FranksOps/gscrape/pkg/search"
	"github.com/spf13/cobra"
)

var (
	adsFlags  queryFlags
	adsTitle  string
	adsDirect string
	adsJSON   bool
)

var adsCmd = &cobra.Command{
	Use:   "ads [query...]",
	Short: "Print the sponsored links of the first results page",
	RunE:  runAds,
}

func init() {
	adsFlags.register(adsCmd)
	adsCmd.Flags().StringVar(&adsTitle, "title", "", "only ads whose title contains this text")
	adsCmd.Flags().StringVar(&adsDirect, "direct-url", "", "only ads whose landing page contains this text")
	adsCmd.Flags().BoolVar(&adsJSON, "json", false, "output ads as JSON")
	rootCmd.AddCommand(adsCmd)
}

type adJSON struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	DirectURL string `json:"direct_url,omitempty"`
}

func runAds(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	fetcher, err := newFetcher(cfg.Fetch, logger)
	if err != nil {
		return err
	}
	opts, err := adsFlags.webOptions(query, cfg.Search)
	if err != nil {
		return err
	}
	q, err := search.NewWebQuery(opts, fetcher, logger)
	if err != nil {
		return err
	}

	ads, err := q.SponsoredLinks(ctx)
	if err != nil {
		return err
	}
	if adsTitle != "" {
		ads = ads.AdsWithTitle(containing(adsTitle))
	}
	if adsDirect != "" {
		ads = ads.AdsWithDirectURL(containing(adsDirect))
	}

	if adsJSON {
		out := make([]adJSON, len(ads))
		for i, ad := range ads {
			out[i] = adJSON{Title: ad.Title, URL: urlText(ad.URL), DirectURL: ad.DirectLink()}
		}
		return writeJSON(cmd.OutOrStdout(), out)
	}
	renderAds(cmd.OutOrStdout(), "Sponsored links for "+q.Expression(), ads)
	return nil
}

// containing matches text with s anywhere in it.
func containing(s string) search.Matcher {
	return search.Pattern(regexp.MustCompile(regexp.QuoteMeta(s)))
}
