package search

import "net/url"

// Result is a single organic search hit.
type Result struct {
	Rank       int
	Title      string
	URL        *url.URL
	Summary    string
	CachedURL  *url.URL
	SimilarURL *url.URL
}

func (r Result) String() string {
	return r.Title
}

// Page is the ordered list of results fetched for one page index. An empty
// page marks the end of the result set.
type Page []Result

// ResultsWith returns the results satisfying keep.
func (p Page) ResultsWith(keep func(Result) bool) Page {
	var out Page
	for _, r := range p {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// ResultsWithTitle returns the results whose title matches m.
func (p Page) ResultsWithTitle(m Matcher) Page {
	return p.ResultsWith(func(r Result) bool { return m.Match(r.Title) })
}

// ResultsWithURL returns the results whose URL matches m.
func (p Page) ResultsWithURL(m Matcher) Page {
	return p.ResultsWith(func(r Result) bool { return r.URL != nil && m.Match(r.URL.String()) })
}

// ResultsWithSummary returns the results whose summary matches m.
func (p Page) ResultsWithSummary(m Matcher) Page {
	return p.ResultsWith(func(r Result) bool { return m.Match(r.Summary) })
}

func (p Page) Ranks() []int {
	out := make([]int, len(p))
	for i, r := range p {
		out[i] = r.Rank
	}
	return out
}

func (p Page) Titles() []string {
	out := make([]string, len(p))
	for i, r := range p {
		out[i] = r.Title
	}
	return out
}

func (p Page) URLs() []*url.URL {
	out := make([]*url.URL, len(p))
	for i, r := range p {
		out[i] = r.URL
	}
	return out
}

func (p Page) Summaries() []string {
	out := make([]string, len(p))
	for i, r := range p {
		out[i] = r.Summary
	}
	return out
}

// CachedURLs skips results without a cached copy.
func (p Page) CachedURLs() []*url.URL {
	var out []*url.URL
	for _, r := range p {
		if r.CachedURL != nil {
			out = append(out, r.CachedURL)
		}
	}
	return out
}

// SimilarURLs skips results without a similar-results link.
func (p Page) SimilarURLs() []*url.URL {
	var out []*url.URL
	for _, r := range p {
		if r.SimilarURL != nil {
			out = append(out, r.SimilarURL)
		}
	}
	return out
}
