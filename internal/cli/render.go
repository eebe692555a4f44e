package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/FranksOps/gscrape/internal/pipeline"
	"github.com/FranksOps/gscrape/pkg/search"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Margin(1, 0, 1, 0)

	rankStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	titleStyle = lipgloss.NewStyle().Bold(true)

	urlStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingLeft(5).
			Width(100)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	return nil
}

type resultJSON struct {
	Rank       int    `json:"rank"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Summary    string `json:"summary,omitempty"`
	CachedURL  string `json:"cached_url,omitempty"`
	SimilarURL string `json:"similar_url,omitempty"`
}

func toJSON(results []search.Result) []resultJSON {
	out := make([]resultJSON, len(results))
	for i, r := range results {
		out[i] = resultJSON{
			Rank:       r.Rank,
			Title:      r.Title,
			URL:        urlText(r.URL),
			Summary:    r.Summary,
			CachedURL:  urlText(r.CachedURL),
			SimilarURL: urlText(r.SimilarURL),
		}
	}
	return out
}

func urlText(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

func renderResults(w io.Writer, header string, results []search.Result) {
	fmt.Fprintln(w, headerStyle.Render(header))
	if len(results) == 0 {
		fmt.Fprintln(w, metaStyle.Render("No results found."))
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s %s\n", rankStyle.Render(fmt.Sprintf("%3d.", r.Rank)), titleStyle.Render(r.Title))
		if r.URL != nil {
			fmt.Fprintf(w, "     %s\n", urlStyle.Render(r.URL.String()))
		}
		if r.Summary != "" {
			fmt.Fprintln(w, summaryStyle.Render(r.Summary))
		}
		if r.CachedURL != nil {
			fmt.Fprintf(w, "     %s\n", metaStyle.Render("cached: "+r.CachedURL.String()))
		}
	}
}

func renderAds(w io.Writer, header string, ads search.SponsoredLinks) {
	fmt.Fprintln(w, headerStyle.Render(header))
	if len(ads) == 0 {
		fmt.Fprintln(w, metaStyle.Render("No sponsored links."))
		return
	}
	for i, ad := range ads {
		fmt.Fprintf(w, "%s %s\n", rankStyle.Render(fmt.Sprintf("%3d.", i+1)), titleStyle.Render(ad.Title))
		if link := ad.DirectLink(); link != "" {
			fmt.Fprintf(w, "     %s\n", urlStyle.Render(link))
		}
	}
}

func renderFindings(w io.Writer, header string, findings []pipeline.Finding) {
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, f := range findings {
		fmt.Fprintf(w, "%s %s\n", rankStyle.Render(fmt.Sprintf("%3d.", f.Rank)), titleStyle.Render(f.Title))
		fmt.Fprintf(w, "     %s\n", urlStyle.Render(f.URL))
		if f.Error != "" {
			fmt.Fprintf(w, "     %s\n", errorStyle.Render(f.Error))
			continue
		}
		if len(f.Matches) == 0 {
			fmt.Fprintf(w, "     %s\n", metaStyle.Render("no matches"))
			continue
		}
		for _, m := range f.Matches {
			fmt.Fprintf(w, "     %s\n", metaStyle.Render(fmt.Sprintf("%s: %d", m.Term, m.Count)))
			for _, s := range m.Sentences {
				fmt.Fprintln(w, summaryStyle.Render(strings.TrimSpace(s)))
			}
		}
	}
}
