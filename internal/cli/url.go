package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FranksOps/gscrape/internal/serp"
	"github.com/FranksOps/gscrape/pkg/search"
	"github.com/spf13/cobra"
)

var (
	urlFlags queryFlags
	urlPages []int
	urlParse string
)

var urlCmd = &cobra.Command{
	Use:   "url [query...]",
	Short: "Print search and page URLs without fetching",
	Long: `Prints the search URL for the query and the URL of each page given with
--page. With --parse, reads the options back out of an existing results URL
and prints the expression they produce.`,
	RunE: runURL,
}

func init() {
	urlFlags.register(urlCmd)
	urlCmd.Flags().IntSliceVar(&urlPages, "page", nil, "page indices to print URLs for")
	urlCmd.Flags().StringVar(&urlParse, "parse", "", "results URL to read options from")
	rootCmd.AddCommand(urlCmd)
}

// noFetch backs queries that only build URLs.
var noFetch = search.FetcherFunc(func(ctx context.Context, req search.Request) (*search.Document, error) {
	return nil, errors.New("fetching is disabled")
})

func runURL(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	expression, searchURL, pageURL, err := buildQuery(args)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s %s\n", metaStyle.Render("expression:"), expression)
	fmt.Fprintf(w, "%s %s\n", metaStyle.Render("search:"), urlStyle.Render(searchURL))
	for _, i := range urlPages {
		u, err := pageURL(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", metaStyle.Render(fmt.Sprintf("page %d:", i)), urlStyle.Render(u))
	}
	return nil
}

// buildQuery returns the expression, search URL and a page URL builder for
// either the parsed URL or the flags.
func buildQuery(args []string) (string, string, func(int) (string, error), error) {
	endpoint := cfg.Search.Endpoint
	if urlParse != "" && strings.Contains(urlParse, search.AJAXPath) {
		endpoint = serp.EndpointAJAX
	}

	if endpoint == serp.EndpointAJAX {
		var q *search.AJAXQuery
		var err error
		if urlParse != "" {
			q, err = search.AJAXQueryFromURL(urlParse, noFetch, logger)
		} else {
			q, err = search.NewAJAXQuery(search.AJAXOptions{Options: urlFlags.options(strings.Join(args, " "), cfg.Search)}, noFetch, logger)
		}
		if err != nil {
			return "", "", nil, err
		}
		return q.Expression(), q.SearchURL().String(), func(i int) (string, error) {
			u, err := q.PageURL(i)
			if err != nil {
				return "", err
			}
			return u.String(), nil
		}, nil
	}

	var q *search.WebQuery
	var err error
	if urlParse != "" {
		q, err = search.WebQueryFromURL(urlParse, noFetch, logger)
	} else {
		var opts search.WebOptions
		opts, err = urlFlags.webOptions(strings.Join(args, " "), cfg.Search)
		if err == nil {
			q, err = search.NewWebQuery(opts, noFetch, logger)
		}
	}
	if err != nil {
		return "", "", nil, err
	}
	return q.Expression(), q.SearchURL().String(), func(i int) (string, error) {
		u, err := q.PageURL(i)
		if err != nil {
			return "", err
		}
		return u.String(), nil
	}, nil
}
