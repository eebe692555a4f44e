package report

import (
	"cmp"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"net/url"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/FranksOps/gscrape/internal/storage"
)

// DefaultTopDomains is the number of domains kept in Summary.TopDomains.
const DefaultTopDomains = 10

// DomainCount is how often a domain appeared among the results.
type DomainCount struct {
	Domain  string `json:"domain"`
	Results int    `json:"results"`
	// BestRank is the lowest rank the domain reached.
	BestRank int `json:"best_rank"`
}

// Summary contains aggregated figures about archived search results.
type Summary struct {
	TotalResults int            `json:"total_results"`
	Runs         int            `json:"runs"`
	Queries      map[string]int `json:"queries"`
	Endpoints    map[string]int `json:"endpoints"`
	Cached       int            `json:"cached"`
	TopDomains   []DomainCount  `json:"top_domains"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	Duration     time.Duration  `json:"duration"`
}

// GenerateSummary aggregates records. topDomains bounds TopDomains; zero
// or less means DefaultTopDomains.
func GenerateSummary(records []*storage.Record, topDomains int) Summary {
	if topDomains <= 0 {
		topDomains = DefaultTopDomains
	}
	s := Summary{
		Queries:   make(map[string]int),
		Endpoints: make(map[string]int),
	}

	if len(records) == 0 {
		return s
	}

	s.StartTime = records[0].CreatedAt
	s.EndTime = records[0].CreatedAt

	runs := make(map[string]struct{})
	domains := make(map[string]*DomainCount)

	for _, r := range records {
		s.TotalResults++
		s.Queries[r.Query]++
		s.Endpoints[r.Endpoint]++
		runs[r.RunID] = struct{}{}
		if r.CachedURL != "" {
			s.Cached++
		}

		if d := domainOf(r.URL); d != "" {
			dc, ok := domains[d]
			if !ok {
				dc = &DomainCount{Domain: d, BestRank: r.Rank}
				domains[d] = dc
			}
			dc.Results++
			dc.BestRank = min(dc.BestRank, r.Rank)
		}

		if r.CreatedAt.Before(s.StartTime) {
			s.StartTime = r.CreatedAt
		}
		if r.CreatedAt.After(s.EndTime) {
			s.EndTime = r.CreatedAt
		}
	}

	s.Runs = len(runs)
	s.Duration = s.EndTime.Sub(s.StartTime)

	for _, dc := range domains {
		s.TopDomains = append(s.TopDomains, *dc)
	}
	slices.SortFunc(s.TopDomains, func(a, b DomainCount) int {
		return cmp.Or(
			cmp.Compare(b.Results, a.Results),
			cmp.Compare(a.BestRank, b.BestRank),
			strings.Compare(a.Domain, b.Domain),
		)
	})
	if len(s.TopDomains) > topDomains {
		s.TopDomains = s.TopDomains[:topDomains]
	}
	return s
}

func domainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("context: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Search Results Summary
----------------------
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Runs:          {{.Runs}}
Results:       {{.TotalResults}}
Cached:        {{.Cached}}

Queries:
{{- range $q, $count := .Queries}}
  {{$q}}: {{$count}}
{{- else}}
  None
{{- end}}

Endpoints:
{{- range $e, $count := .Endpoints}}
  {{$e}}: {{$count}}
{{- else}}
  None
{{- end}}

Top Domains:
{{- range .TopDomains}}
  {{.Domain}}: {{.Results}} (best rank {{.BestRank}})
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("context: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Search Results Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Search Results Report</h1>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Results</div>
    <div class="stat-val">{{.TotalResults}}</div>
  </div>
  <div class="stat-card">
    <div>Runs</div>
    <div class="stat-val">{{.Runs}}</div>
  </div>
  <div class="stat-card">
    <div>Cached</div>
    <div class="stat-val">{{.Cached}}</div>
  </div>

  <h3>Queries</h3>
  <table>
    <tr><th>Query</th><th>Results</th></tr>
    {{- range $q, $count := .Queries}}
    <tr><td>{{$q}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Top Domains</h3>
  <table>
    <tr><th>Domain</th><th>Results</th><th>Best Rank</th></tr>
    {{- range .TopDomains}}
    <tr><td>{{.Domain}}</td><td>{{.Results}}</td><td>{{.BestRank}}</td></tr>
    {{- else}}
    <tr><td colspan="3">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := htmltemplate.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("context: %w", err)
	}

	return nil
}
