package analyzer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/FranksOps/gscrape/pkg/search"
	"github.com/PuerkitoBio/goquery"
)

// TermMatch represents occurrences of a search term within a result page.
type TermMatch struct {
	Term      string   `json:"term"`
	URL       string   `json:"url"`
	Domain    string   `json:"domain"`
	Count     int      `json:"count"`
	Sentences []string `json:"sentences"`
}

// FindTermMatches scans content for each term (case-insensitive) and returns
// one TermMatch per term that occurs, in term order. Every sentence
// containing the term is kept.
func FindTermMatches(content, url, domain string, terms []string) []TermMatch {
	if len(content) == 0 || len(terms) == 0 {
		return nil
	}

	results := make([]TermMatch, 0, len(terms))
	lowerContent := strings.ToLower(content)
	sentences := splitIntoSentences(content)

	for _, term := range terms {
		lowerTerm := strings.ToLower(strings.TrimSpace(term))
		if lowerTerm == "" {
			continue
		}
		count := strings.Count(lowerContent, lowerTerm)
		if count == 0 {
			continue
		}

		var matched []string
		for _, s := range sentences {
			if strings.Contains(s.lower, lowerTerm) {
				matched = append(matched, s.original)
			}
		}

		results = append(results, TermMatch{
			Term:      term,
			URL:       url,
			Domain:    domain,
			Count:     count,
			Sentences: matched,
		})
	}
	return results
}

// AnalyzeDocument extracts the visible text of a fetched page and matches
// terms against it.
func AnalyzeDocument(doc *search.Document, terms []string) ([]TermMatch, error) {
	text, err := PageText(doc.Body)
	if err != nil {
		return nil, err
	}
	url, domain := "", ""
	if doc.URL != nil {
		url, domain = doc.URL.String(), doc.URL.Hostname()
	}
	return FindTermMatches(text, url, domain, terms), nil
}

// PageText returns the text of an HTML body with scripts, styles and
// markup removed and whitespace collapsed.
func PageText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("context: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return strings.Join(strings.Fields(root.Text()), " "), nil
}

type sentence struct {
	original string
	lower    string
}

// splitIntoSentences splits text on '.', '!' and '?', keeping the delimiter
// at the end of each sentence.
func splitIntoSentences(text string) []sentence {
	if len(text) == 0 {
		return nil
	}

	// roughly 1 sentence per 50 chars
	sentences := make([]sentence, 0, max(len(text)/50, 1))
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		sentences = append(sentences, sentence{original: s, lower: strings.ToLower(s)})
	}

	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := i + 1
		for end < len(text) && unicode.IsSpace(rune(text[end])) {
			end++
		}
		add(text[start:end])
		start = end
	}

	if start < len(text) {
		add(text[start:])
	}
	return sentences
}
