package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
)

const (
	// WebPath is the classic HTML results endpoint.
	WebPath = "/search"

	// DefaultResultsPerPage is used when WebOptions.ResultsPerPage is zero.
	DefaultResultsPerPage = 10
)

// ErrNotCached is returned by FetchCached for results without a cached copy.
var ErrNotCached = errors.New("search: result has no cached copy")

// Area restricts where the query terms must occur.
type Area string

const (
	AreaAny   Area = ""
	AreaTitle Area = "title"
	AreaBody  Area = "body"
	AreaURL   Area = "url"
	AreaLinks Area = "links"
)

var areas = []Area{AreaTitle, AreaBody, AreaURL, AreaLinks}

// recencyCodes maps months to as_qdr codes; other month counts have none.
var recencyCodes = map[int]string{1: "m", 2: "m2", 3: "m3", 6: "m6"}

// WebOptions configures a query against the classic results endpoint.
type WebOptions struct {
	Options

	ResultsPerPage int
	Region         string

	WithinPastDay    bool
	WithinPastWeek   bool
	WithinPastMonths int
	WithinPastYear   bool

	OccursWithin  Area
	InsideDomain  string
	OutsideDomain string
	Rights        License
	Filtered      bool
}

// SimilarTo is the related: target of the query.
func (o *WebOptions) SimilarTo() string { return o.Related }

// LinksTo is the link: target of the query.
func (o *WebOptions) LinksTo() string { return o.Link }

// normalize applies defaults and first-set-wins precedence, then rejects
// values that have no wire encoding.
func (o *WebOptions) normalize() error {
	if o.ResultsPerPage < 0 {
		return &ConfigError{Field: "results per page", Reason: "must not be negative"}
	}
	if o.ResultsPerPage == 0 {
		o.ResultsPerPage = DefaultResultsPerPage
	}

	switch {
	case o.WithinPastDay:
		o.WithinPastWeek, o.WithinPastMonths, o.WithinPastYear = false, 0, false
	case o.WithinPastWeek:
		o.WithinPastMonths, o.WithinPastYear = 0, false
	case o.WithinPastMonths != 0:
		o.WithinPastYear = false
	}
	if o.WithinPastMonths != 0 {
		if _, ok := recencyCodes[o.WithinPastMonths]; !ok {
			return &ConfigError{Field: "within past months", Reason: fmt.Sprintf("%d is not one of 1, 2, 3, 6", o.WithinPastMonths)}
		}
	}

	if o.InsideDomain != "" {
		o.OutsideDomain = ""
	}
	if o.Related != "" {
		o.Link = ""
	}

	if o.OccursWithin != AreaAny && !slices.Contains(areas, o.OccursWithin) {
		return &ConfigError{Field: "occurs within", Reason: fmt.Sprintf("unknown area %q", o.OccursWithin)}
	}
	if o.Rights != LicenseAny {
		if _, ok := rightsExpressions[o.Rights]; !ok {
			return &ConfigError{Field: "rights", Reason: fmt.Sprintf("license %q has no rights expression", o.Rights)}
		}
	}
	return nil
}

// WebQuery runs a query against the classic HTML results endpoint. Its
// options are fixed at construction so cached pages stay valid.
type WebQuery struct {
	*Pager

	opts    WebOptions
	fetcher Fetcher
	logger  *slog.Logger
}

// NewWebQuery validates opts and returns a query that fetches through
// fetcher. An empty Language defaults to NativeLanguage.
func NewWebQuery(opts WebOptions, fetcher Fetcher, logger *slog.Logger) (*WebQuery, error) {
	if fetcher == nil {
		return nil, errors.New("search: fetcher cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Language == "" {
		opts.Language = NativeLanguage()
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	q := &WebQuery{
		opts:    opts,
		fetcher: fetcher,
		logger:  logger,
	}
	q.Pager = newPager(opts.ResultsPerPage, q.loadPage)
	return q, nil
}

// WebQueryFromURL builds a query from an existing results URL.
func WebQueryFromURL(rawURL string, fetcher Fetcher, logger *slog.Logger) (*WebQuery, error) {
	opts, err := ParseWebURL(rawURL)
	if err != nil {
		return nil, err
	}
	return NewWebQuery(opts, fetcher, logger)
}

// Options returns the normalized options of the query.
func (q *WebQuery) Options() WebOptions {
	return q.opts
}

func (q *WebQuery) Expression() string {
	return q.opts.Expression()
}

// SearchHost returns the host for the next URL; see Options.LoadBalance.
func (q *WebQuery) SearchHost() string {
	return q.opts.Host()
}

// SearchURL returns the URL of the first results page.
func (q *WebQuery) SearchURL() *url.URL {
	o := &q.opts
	p := NewParams()

	p.Set("num", o.ResultsPerPage)
	p.SetIf("q", o.Expression())
	p.SetIf("as_epq", o.ExactPhrase)
	p.SetIf("as_oq", o.WithWords.String())
	p.SetIf("as_eq", o.WithoutWords.String())

	p.SetIf("lr", o.Language)
	p.SetIf("cr", o.Region)
	p.SetIf("as_filetype", o.Filetype)

	switch {
	case o.WithinPastDay:
		p.Set("as_qdr", "d")
	case o.WithinPastWeek:
		p.Set("as_qdr", "w")
	case o.WithinPastMonths != 0:
		p.Set("as_qdr", recencyCodes[o.WithinPastMonths])
	case o.WithinPastYear:
		p.Set("as_qdr", "y")
	}

	if o.NumericRange != nil {
		p.Set("as_nlo", o.NumericRange.Low)
		p.Set("as_nhi", o.NumericRange.High)
	}

	if o.OccursWithin != AreaAny {
		p.Set("as_occt", string(o.OccursWithin))
	}

	switch {
	case o.InsideDomain != "":
		p.Set("as_sitesearch", o.InsideDomain)
		p.Set("as_dt", "i")
	case o.OutsideDomain != "":
		p.Set("as_sitesearch", o.OutsideDomain)
		p.Set("as_dt", "e")
	}

	if expr, ok := rightsExpressions[o.Rights]; ok {
		p.Set("as_rights", expr)
	}
	if o.Filtered {
		p.Set("safe", true)
	}

	p.SetIf("as_rq", o.Related)
	p.SetIf("as_lq", o.Link)

	return &url.URL{
		Scheme:   "http",
		Host:     q.SearchHost(),
		Path:     WebPath,
		RawQuery: p.Encode(),
	}
}

// PageURL returns the URL of the results page at index.
func (q *WebQuery) PageURL(index int) (*url.URL, error) {
	offset, err := ResultOffsetOf(index, q.opts.ResultsPerPage)
	if err != nil {
		return nil, err
	}
	u := q.SearchURL()
	p := ParseParams(u)
	if offset > 0 {
		p.Set("start", offset)
	}
	p.Set("sa", "N")
	u.RawQuery = p.Encode()
	return u, nil
}

func (q *WebQuery) fetchHTML(ctx context.Context, u *url.URL) (*Document, error) {
	q.logger.Debug("fetching results", "url", u.String())
	doc, err := q.fetcher.Fetch(ctx, Request{URL: u})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (q *WebQuery) loadPage(ctx context.Context, index int) (Page, error) {
	u, err := q.PageURL(index)
	if err != nil {
		return nil, err
	}
	doc, err := q.fetchHTML(ctx, u)
	if err != nil {
		return nil, err
	}
	html, err := doc.HTML()
	if err != nil {
		return nil, err
	}
	page, err := ParseResults(html, u, index, q.opts.ResultsPerPage)
	if err != nil {
		if errors.Is(err, ErrBlocked) {
			q.logger.Warn("results page blocked", "url", u.String(), "page", index)
		}
		return nil, err
	}
	q.logger.Debug("parsed results page", "page", index, "results", len(page))
	return page, nil
}

// SponsoredLinks fetches the first results page and returns its ads. Ads are
// not cached.
func (q *WebQuery) SponsoredLinks(ctx context.Context) (SponsoredLinks, error) {
	u := q.SearchURL()
	doc, err := q.fetchHTML(ctx, u)
	if err != nil {
		return nil, err
	}
	html, err := doc.HTML()
	if err != nil {
		return nil, err
	}
	return ParseSponsoredLinks(html, u)
}

// TopSponsoredLink returns the first ad of the first results page.
func (q *WebQuery) TopSponsoredLink(ctx context.Context) (SponsoredAd, error) {
	ads, err := q.SponsoredLinks(ctx)
	if err != nil {
		return SponsoredAd{}, err
	}
	if len(ads) == 0 {
		return SponsoredAd{}, ErrNoResult
	}
	return ads[0], nil
}

// Similar returns a new query for the similar-results link of r, sharing
// this query's fetcher and logger.
func (q *WebQuery) Similar(r Result) (*WebQuery, error) {
	if r.SimilarURL == nil {
		return nil, fmt.Errorf("search: result %d has no similar-results link", r.Rank)
	}
	return WebQueryFromURL(r.SimilarURL.String(), q.fetcher, q.logger)
}

// FetchResult fetches the page a result points to.
func (q *WebQuery) FetchResult(ctx context.Context, r Result) (*Document, error) {
	if r.URL == nil {
		return nil, fmt.Errorf("search: result %d has no URL", r.Rank)
	}
	return q.fetcher.Fetch(ctx, Request{URL: r.URL, Referer: q.SearchURL().String()})
}

// FetchCached fetches the cached copy of a result.
func (q *WebQuery) FetchCached(ctx context.Context, r Result) (*Document, error) {
	if r.CachedURL == nil {
		return nil, ErrNotCached
	}
	return q.fetcher.Fetch(ctx, Request{URL: r.CachedURL, Referer: q.SearchURL().String()})
}

// ParseWebURL reads the options back out of a classic results URL. The
// free-text query comes from as_q when present; otherwise it is q with the
// terms implied by the other recovered parameters removed.
func ParseWebURL(rawURL string) (WebOptions, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return WebOptions{}, fmt.Errorf("context: %w", err)
	}
	p := ParseParams(u)

	var o WebOptions
	o.SearchHost = u.Host
	o.ResultsPerPage = p.Int("num", DefaultResultsPerPage)

	o.ExactPhrase = p.Get("as_epq")
	if s := p.Get("as_oq"); s != "" {
		o.WithWords = withWordsFrom(p.Get("q"), s)
	}
	if s := p.Get("as_eq"); s != "" {
		o.WithoutWords = withoutWordsFrom(p.Get("q"), s)
	}

	o.Language = p.Get("lr")
	o.Region = p.Get("cr")
	o.Filetype = p.Get("as_filetype")

	switch qdr := p.Get("as_qdr"); qdr {
	case "d":
		o.WithinPastDay = true
	case "w":
		o.WithinPastWeek = true
	case "y":
		o.WithinPastYear = true
	default:
		for months, code := range recencyCodes {
			if code == qdr {
				o.WithinPastMonths = months
			}
		}
	}

	if p.Get("as_nlo") != "" || p.Get("as_nhi") != "" {
		o.NumericRange = &Range{Low: p.Int("as_nlo", 0), High: p.Int("as_nhi", 0)}
	}

	if area := Area(p.Get("as_occt")); slices.Contains(areas, area) {
		o.OccursWithin = area
	}

	if site := p.Get("as_sitesearch"); site != "" {
		if p.Get("as_dt") == "e" {
			o.OutsideDomain = site
		} else {
			o.InsideDomain = site
		}
	}

	o.Rights = licenseFromRights(p.Get("as_rights"))
	o.Filtered = p.Active("safe")

	if rq := p.Get("as_rq"); rq != "" {
		o.Related = rq
	} else if lq := p.Get("as_lq"); lq != "" {
		o.Link = lq
	}

	if asq := p.Get("as_q"); asq != "" {
		o.Query = asq
	} else {
		o.Query = stripImpliedTerms(p.Get("q"), o.Options)
	}
	return o, nil
}

// withWordsFrom recovers the with-words set of as_oq. It is a list only when
// expr carries its words joined by OR; otherwise as_oq is kept verbatim.
func withWordsFrom(expr, s string) Words {
	if items := matchWordList(expr, strings.Fields(s), orItemStart); len(items) > 1 {
		return WordList(items...)
	}
	return Phrase(s)
}

// withoutWordsFrom recovers the without-words set of as_eq. It is a list
// when expr carries its words negated; otherwise as_eq is kept verbatim.
func withoutWordsFrom(expr, s string) Words {
	if items := matchWordList(expr, strings.Fields(s), negatedItemStart); items != nil {
		return WordList(items...)
	}
	return Phrase(s)
}

// matchWordList finds the last run of tokens in expr that renders fields as
// a word list and returns its items. start reports how many tokens an item
// beginning with w takes at toks, or 0 when no item begins there. Fields
// that do not begin an item continue the previous one.
func matchWordList(expr string, fields []string, start func(toks []string, w string, first bool) int) []string {
	if len(fields) == 0 {
		return nil
	}
	toks := strings.Fields(expr)
	for i := len(toks) - 1; i >= 0; i-- {
		if items := matchItemsAt(toks[i:], fields, start); items != nil {
			return items
		}
	}
	return nil
}

func matchItemsAt(toks, fields []string, start func([]string, string, bool) int) []string {
	var items []string
	k := 0
	for j, w := range fields {
		if n := start(toks[k:], w, j == 0); n > 0 {
			items = append(items, w)
			k += n
			continue
		}
		if j > 0 && k < len(toks) && toks[k] == w {
			items[len(items)-1] += " " + w
			k++
			continue
		}
		return nil
	}
	return items
}

func orItemStart(toks []string, w string, first bool) int {
	switch {
	case first && len(toks) > 0 && toks[0] == w:
		return 1
	case !first && len(toks) > 1 && toks[0] == "OR" && toks[1] == w:
		return 2
	}
	return 0
}

func negatedItemStart(toks []string, w string, _ bool) int {
	if len(toks) > 0 && toks[0] == "-"+w {
		return 1
	}
	return 0
}

// stripImpliedTerms removes from expr the terms that o would emit, leaving
// the free-text part. Word sets are tried in both list and phrase form.
func stripImpliedTerms(expr string, o Options) string {
	o.Query = ""
	asPhrase := o
	asPhrase.WithWords = Phrase(o.WithWords.String())
	asPhrase.WithoutWords = Phrase(o.WithoutWords.String())

	primary, fallback := o.termList(), asPhrase.termList()
	for i := len(primary) - 1; i > 0; i-- {
		if primary[i] == "" {
			continue
		}
		if rest, ok := removeTerm(expr, primary[i]); ok {
			expr = rest
		} else if rest, ok := removeTerm(expr, fallback[i]); ok {
			expr = rest
		}
	}
	return strings.TrimSpace(expr)
}

// removeTerm removes the last whole-word occurrence of term from expr.
func removeTerm(expr, term string) (string, bool) {
	if term == "" {
		return expr, false
	}
	for end := len(expr); end > 0; {
		i := strings.LastIndex(expr[:end], term)
		if i < 0 {
			return expr, false
		}
		j := i + len(term)
		if (i == 0 || expr[i-1] == ' ') && (j == len(expr) || expr[j] == ' ') {
			left := strings.TrimRight(expr[:i], " ")
			right := strings.TrimLeft(expr[j:], " ")
			if left != "" && right != "" {
				return left + " " + right, true
			}
			return left + right, true
		}
		end = i + len(term) - 1
	}
	return expr, false
}
