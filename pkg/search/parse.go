package search

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// blockedSelector matches the help link shown when the upstream has
	// temporarily blocked the client.
	blockedSelector = `div a[href="http://www.google.com/support/bin/answer.py?answer=86640"]`

	resultSelector  = "li.g, li > div.g"
	titleSelector   = "h3.r > a"
	snippetSelector = "div.s"
	legacySnippet   = "td.j font"
	linksSelector   = "span.gl"
	adSelector      = `#pa1, a[id^="an"]`
)

// checkBlocked returns a *BlockedError if doc is the upstream block page.
func checkBlocked(doc *goquery.Document, pageURL *url.URL) error {
	if doc.Find(blockedSelector).Length() == 0 {
		return nil
	}
	u := ""
	if pageURL != nil {
		u = pageURL.String()
	}
	return &BlockedError{URL: u, Source: "Google"}
}

// ParseResults extracts the organic results of a classic results page.
// Ranks start after the results of the preceding pages and at most perPage
// results are returned. Missing sub-elements leave fields empty; a document
// without result nodes yields an empty page.
func ParseResults(doc *goquery.Document, pageURL *url.URL, pageIndex, perPage int) (Page, error) {
	if err := checkBlocked(doc, pageURL); err != nil {
		return nil, err
	}
	offset, err := ResultOffsetOf(pageIndex, perPage)
	if err != nil {
		return nil, err
	}

	nodes := doc.Find(resultSelector)
	n := min(nodes.Length(), perPage)

	page := make(Page, 0, n)
	for i := 0; i < n; i++ {
		page = append(page, parseResult(nodes.Eq(i), pageURL, offset+i+1))
	}
	return page, nil
}

func parseResult(s *goquery.Selection, base *url.URL, rank int) Result {
	link := s.Find(titleSelector).First()
	href, _ := link.Attr("href")

	r := Result{
		Rank:  rank,
		Title: strings.TrimSpace(link.Text()),
		URL:   resultURL(href, base),
	}

	content := s.Find(snippetSelector).First()
	if content.Length() == 0 {
		content = s.Find(legacySnippet).First()
	}
	r.Summary = snippetText(content)

	links := s.Find(linksSelector + " a")
	if cached := links.FilterFunction(isCachedLink).First(); cached.Length() > 0 {
		if h, ok := cached.Attr("href"); ok {
			r.CachedURL = resolve(base, h)
		}
	}
	if similar := links.FilterFunction(isSimilarLink).Last(); similar.Length() > 0 {
		if h, ok := similar.Attr("href"); ok {
			r.SimilarURL = resolve(base, h)
		}
	}
	return r
}

// snippetText concatenates the snippet's children with whitespace collapsed.
// A <br> separates lines with a space, except when the snippet carries the
// inline cached/similar links block: text after the first <br> belongs to
// that block and is dropped.
func snippetText(content *goquery.Selection) string {
	if content.Length() == 0 {
		return ""
	}
	stopAtBreak := content.Find(linksSelector).Length() > 0

	var b strings.Builder
	content.Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		n := c.Get(0)
		if n.Type == html.ElementNode && n.Data == "br" {
			if stopAtBreak {
				return false
			}
			b.WriteByte(' ')
			return true
		}
		b.WriteString(c.Text())
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

func isCachedLink(_ int, s *goquery.Selection) bool {
	href, _ := s.Attr("href")
	return strings.Contains(href, "cache:") ||
		strings.EqualFold(strings.TrimSpace(s.Text()), "cached")
}

func isSimilarLink(_ int, s *goquery.Selection) bool {
	href, _ := s.Attr("href")
	return strings.Contains(href, "related:") ||
		strings.EqualFold(strings.TrimSpace(s.Text()), "similar")
}

func resolve(base *url.URL, href string) *url.URL {
	if href == "" {
		return nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	if base == nil {
		return ref
	}
	return base.ResolveReference(ref)
}

// resultURL resolves a result link, unwrapping /url?q= redirect links into
// the decoded target.
func resultURL(href string, base *url.URL) *url.URL {
	u := resolve(base, href)
	if u == nil || u.Path != "/url" {
		return u
	}
	if base != nil && u.Host != base.Host {
		return u
	}
	params := u.Query()
	target := params.Get("q")
	if target == "" {
		target = params.Get("url")
	}
	if target == "" {
		return u
	}
	if t, err := url.Parse(target); err == nil {
		return t
	}
	return u
}

// ParseSponsoredLinks extracts the top and side ads of a results page.
func ParseSponsoredLinks(doc *goquery.Document, pageURL *url.URL) (SponsoredLinks, error) {
	if err := checkBlocked(doc, pageURL); err != nil {
		return nil, err
	}

	var ads SponsoredLinks
	doc.Find(adSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		u := resolve(pageURL, href)
		if u == nil {
			return
		}
		ads = append(ads, SponsoredAd{
			Title: strings.TrimSpace(s.Text()),
			URL:   u,
		})
	})
	return ads, nil
}
