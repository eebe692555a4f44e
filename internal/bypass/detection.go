package bypass

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/FranksOps/gscrape/pkg/search"
)

// Response is the part of a fetched document the detectors inspect.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// FromDocument views a fetched search document as a Response.
func FromDocument(doc *search.Document) *Response {
	if doc == nil {
		return nil
	}
	return &Response{StatusCode: doc.StatusCode, Header: doc.Header, Body: doc.Body}
}

// Detector reports whether a challenge or block page was served and by whom.
type Detector func(res *Response) (detected bool, source string)

// DefaultDetectors returns the upstream interstitial detector followed by the
// common bot-protection vendors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectUnusualTraffic,
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze returns the source of the first detector that fires.
func Analyze(res *Response, detectors []Detector) (bool, string) {
	if res == nil {
		return false, ""
	}
	for _, d := range detectors {
		if detected, source := d(res); detected {
			return true, source
		}
	}
	return false, ""
}

// Check returns a *search.BlockedError when doc is a challenge page.
func Check(doc *search.Document, detectors []Detector) error {
	detected, source := Analyze(FromDocument(doc), detectors)
	if !detected {
		return nil
	}
	u := ""
	if doc.URL != nil {
		u = doc.URL.String()
	}
	return &search.BlockedError{URL: u, Source: source}
}

func (r *Response) header(key string) string {
	if r.Header == nil {
		return ""
	}
	if v := r.Header.Get(key); v != "" {
		return v
	}
	// non-canonical keys set directly on the map
	for k, vals := range r.Header {
		if strings.EqualFold(k, key) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func (r *Response) bodyHas(markers ...string) bool {
	for _, m := range markers {
		if bytes.Contains(r.Body, []byte(m)) {
			return true
		}
	}
	return false
}

// detectUnusualTraffic matches the search engine's own rate-limit page, which
// redirects to /sorry/ and asks for a captcha.
func detectUnusualTraffic(res *Response) (bool, string) {
	if res.StatusCode != http.StatusTooManyRequests && res.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(res.header("Location"), "/sorry/") ||
		res.bodyHas("/sorry/index", "Our systems have detected unusual traffic", "g-recaptcha") {
		return true, "Google"
	}
	return false, ""
}

func detectCloudflare(res *Response) (bool, string) {
	if res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusServiceUnavailable {
		if strings.Contains(strings.ToLower(res.header("Server")), "cloudflare") {
			return true, "Cloudflare"
		}
		if res.bodyHas("cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare") {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

func detectAkamai(res *Response) (bool, string) {
	if res.StatusCode == http.StatusForbidden {
		if strings.Contains(strings.ToLower(res.header("Server")), "akamai") {
			return true, "Akamai"
		}
		// generic "Reference #" block page
		if res.bodyHas("Reference #") && res.bodyHas("Access Denied") {
			return true, "Akamai"
		}
	}
	return false, ""
}

func detectDataDome(res *Response) (bool, string) {
	if res.StatusCode == http.StatusForbidden {
		if strings.Contains(strings.ToLower(res.header("Server")), "datadome") {
			return true, "DataDome"
		}
		if res.header("X-DataDome") != "" || res.header("X-DataDome-Response") != "" {
			return true, "DataDome"
		}
		if res.bodyHas("geo.captcha-delivery.com", "datadome") {
			return true, "DataDome"
		}
	}
	return false, ""
}

// detectPerimeterX covers PerimeterX (HUMAN).
func detectPerimeterX(res *Response) (bool, string) {
	if res.StatusCode == http.StatusForbidden {
		if res.header("X-Px-Captcha") != "" {
			return true, "PerimeterX"
		}
		if res.bodyHas("client.perimeterx.net", "px-captcha", "_pxBlock") {
			return true, "PerimeterX"
		}
	}
	return false, ""
}
