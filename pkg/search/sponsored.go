package search

import (
	"fmt"
	"net/url"
)

// SponsoredAd is a paid placement shown alongside organic results.
type SponsoredAd struct {
	Title string
	URL   *url.URL
}

func (a SponsoredAd) String() string {
	return a.Title
}

// DirectLink returns the advertiser's landing page, read from the adurl
// parameter of the ad URL and falling back to q.
func (a SponsoredAd) DirectLink() string {
	if a.URL == nil {
		return ""
	}
	params := a.URL.Query()
	if v := params.Get("adurl"); v != "" {
		return v
	}
	return params.Get("q")
}

// DirectURL parses DirectLink.
func (a SponsoredAd) DirectURL() (*url.URL, error) {
	link := a.DirectLink()
	if link == "" {
		return nil, fmt.Errorf("search: ad %q has no direct link", a.Title)
	}
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	return u, nil
}

// SponsoredLinks are the ads extracted from a results document.
type SponsoredLinks []SponsoredAd

// AdsWith returns the ads satisfying keep.
func (l SponsoredLinks) AdsWith(keep func(SponsoredAd) bool) SponsoredLinks {
	var out SponsoredLinks
	for _, ad := range l {
		if keep(ad) {
			out = append(out, ad)
		}
	}
	return out
}

// AdsWithTitle selects ads by title. Unlike the result filters, a literal
// must equal the whole title; use a Pattern for partial matches.
func (l SponsoredLinks) AdsWithTitle(m Matcher) SponsoredLinks {
	return l.AdsWith(func(ad SponsoredAd) bool { return m.MatchExact(ad.Title) })
}

// AdsWithURL selects ads by their ad URL, compared like AdsWithTitle.
func (l SponsoredLinks) AdsWithURL(m Matcher) SponsoredLinks {
	return l.AdsWith(func(ad SponsoredAd) bool { return ad.URL != nil && m.MatchExact(ad.URL.String()) })
}

// AdsWithDirectURL selects ads by DirectLink, compared like AdsWithTitle.
func (l SponsoredLinks) AdsWithDirectURL(m Matcher) SponsoredLinks {
	return l.AdsWith(func(ad SponsoredAd) bool {
		link := ad.DirectLink()
		return link != "" && m.MatchExact(link)
	})
}

func (l SponsoredLinks) Titles() []string {
	out := make([]string, len(l))
	for i, ad := range l {
		out[i] = ad.Title
	}
	return out
}

func (l SponsoredLinks) URLs() []*url.URL {
	out := make([]*url.URL, len(l))
	for i, ad := range l {
		out[i] = ad.URL
	}
	return out
}

// DirectURLs skips ads whose direct link is missing or unparsable.
func (l SponsoredLinks) DirectURLs() []*url.URL {
	var out []*url.URL
	for _, ad := range l {
		if u, err := ad.DirectURL(); err == nil {
			out = append(out, u)
		}
	}
	return out
}
