package cli

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/FranksOps/gscrape/internal/config"
	"github.com/FranksOps/gscrape/internal/serp"
	"github.com/FranksOps/gscrape/internal/storage"
	"github.com/FranksOps/gscrape/internal/storage/csvbackend"
	"github.com/FranksOps/gscrape/internal/storage/jsonbackend"
	"github.com/FranksOps/gscrape/internal/storage/postgres"
	"github.com/FranksOps/gscrape/internal/storage/sqlite"
	"github.com/FranksOps/gscrape/pkg/fingerprint"
	"github.com/FranksOps/gscrape/pkg/proxy"
	"github.com/FranksOps/gscrape/pkg/scraper"
	"github.com/FranksOps/gscrape/pkg/search"
	"github.com/FranksOps/gscrape/pkg/useragent"
	"github.com/spf13/cobra"
)

// newFetcher builds the default fetcher from the fetch section.
func newFetcher(c config.FetchConfig, logger *slog.Logger) (*scraper.Fetcher, error) {
	profile, err := fingerprint.ParseProfile(c.Fingerprint)
	if err != nil {
		return nil, err
	}

	uas := useragent.NewPool(nil)
	if c.UserAgent != "" {
		if p, err := useragent.FromAlias(c.UserAgent); err == nil {
			uas = p
		} else {
			uas = useragent.Fixed(c.UserAgent)
		}
	}
	if c.RandomUserAgent {
		uas.WithStrategy(useragent.Random)
	}

	var proxies *proxy.Pool
	if len(c.Proxies) > 0 || c.ProxyFile != "" {
		proxies = proxy.NewPool(proxy.Config{MaxFailures: c.ProxyFailures, Cooldown: c.ProxyCooldown})
		if err := proxies.Add(c.Proxies...); err != nil {
			return nil, err
		}
		if c.ProxyFile != "" {
			if err := proxies.LoadFile(c.ProxyFile); err != nil {
				return nil, err
			}
		}
	}

	return scraper.New(scraper.Config{
		Timeout:      c.Timeout,
		MaxRedirects: c.MaxRedirects,
		UseCookieJar: c.Cookies,
		MaxBodyBytes: c.MaxBodyBytes,
		Proxies:      proxies,
		UserAgents:   uas,
		Fingerprint:  profile,
		EnvProxy:     c.EnvProxy,
	}, logger)
}

// openBackend returns nil, nil for the "none" backend.
func openBackend(ctx context.Context, c config.StorageConfig) (storage.Backend, error) {
	switch c.Backend {
	case "none", "":
		return nil, nil
	case "sqlite":
		return sqlite.New(c.Path)
	case "postgres":
		return postgres.New(ctx, c.DSN)
	case "json":
		return jsonbackend.New(c.Path)
	case "csv":
		return csvbackend.New(c.Path)
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.Backend)
}

// queryFlags are the query options shared by the commands that search.
type queryFlags struct {
	site       string
	filetype   string
	exact      string
	with       []string
	without    []string
	inTitle    string
	inURL      string
	inText     string
	define     string
	within     string
	region     string
	occurs     string
	inside     string
	outside    string
	rights     string
	safe       bool
	perPage    int
	numericMin int
	numericMax int
}

func (q *queryFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&q.site, "site", "", "restrict to a site")
	f.StringVar(&q.filetype, "filetype", "", "restrict to a file type")
	f.StringVar(&q.exact, "exact", "", "exact phrase")
	f.StringSliceVar(&q.with, "with", nil, "any of these words")
	f.StringSliceVar(&q.without, "without", nil, "none of these words")
	f.StringVar(&q.inTitle, "intitle", "", "word that must occur in the title")
	f.StringVar(&q.inURL, "inurl", "", "word that must occur in the url")
	f.StringVar(&q.inText, "intext", "", "word that must occur in the text")
	f.StringVar(&q.define, "define", "", "look up a definition")
	f.StringVar(&q.within, "within", "", "recency: day, week, year, or 1m, 2m, 3m, 6m")
	f.StringVar(&q.region, "region", "", "country restriction, e.g. countryUS")
	f.StringVar(&q.occurs, "occurs", "", "where terms occur: title, body, url, links")
	f.StringVar(&q.inside, "inside", "", "only results inside this domain")
	f.StringVar(&q.outside, "outside", "", "no results inside this domain")
	f.StringVar(&q.rights, "rights", "", "usage rights license, e.g. cc_by")
	f.BoolVar(&q.safe, "safe", false, "filter explicit results")
	f.IntVar(&q.perPage, "num", 0, "results per page (default from config)")
	f.IntVar(&q.numericMin, "range-min", 0, "numeric range low bound")
	f.IntVar(&q.numericMax, "range-max", 0, "numeric range high bound")
}

var monthsPattern = regexp.MustCompile(`^([1-9])m$`)

// options builds the shared options for query from the flags and the
// search section.
func (q *queryFlags) options(query string, c config.SearchConfig) search.Options {
	o := search.Options{
		SearchHost:  c.Host,
		LoadBalance: c.LoadBalance,
		Language:    c.Language,
		Query:       query,
		Site:        q.site,
		Filetype:    q.filetype,
		InTitle:     q.inTitle,
		InURL:       q.inURL,
		InText:      q.inText,
		Define:      q.define,
		ExactPhrase: q.exact,
	}
	if len(q.with) > 0 {
		o.WithWords = search.WordList(q.with...)
	}
	if len(q.without) > 0 {
		o.WithoutWords = search.WordList(q.without...)
	}
	if q.numericMin != 0 || q.numericMax != 0 {
		o.NumericRange = &search.Range{Low: q.numericMin, High: q.numericMax}
	}
	return o
}

func (q *queryFlags) webOptions(query string, c config.SearchConfig) (search.WebOptions, error) {
	o := search.WebOptions{
		Options:        q.options(query, c),
		ResultsPerPage: c.ResultsPerPage,
		Region:         q.region,
		OccursWithin:   search.Area(q.occurs),
		InsideDomain:   q.inside,
		OutsideDomain:  q.outside,
		Rights:         search.License(q.rights),
		Filtered:       q.safe,
	}
	if q.perPage > 0 {
		o.ResultsPerPage = q.perPage
	}

	switch within := strings.ToLower(q.within); {
	case within == "":
	case within == "day":
		o.WithinPastDay = true
	case within == "week":
		o.WithinPastWeek = true
	case within == "year":
		o.WithinPastYear = true
	case monthsPattern.MatchString(within):
		o.WithinPastMonths = int(within[0] - '0')
	default:
		return o, fmt.Errorf("invalid --within %q", q.within)
	}
	return o, nil
}

// provider builds the provider for the configured endpoint. The query
// field of the template is replaced per search.
func (q *queryFlags) provider(c config.SearchConfig, fetcher search.Fetcher, logger *slog.Logger) (serp.Provider, error) {
	if c.Endpoint == serp.EndpointAJAX {
		return &serp.AJAX{
			Options: search.AJAXOptions{Options: q.options("", c)},
			Fetcher: fetcher,
			Logger:  logger,
		}, nil
	}
	opts, err := q.webOptions("", c)
	if err != nil {
		return nil, err
	}
	return &serp.Web{Options: opts, Fetcher: fetcher, Logger: logger}, nil
}
