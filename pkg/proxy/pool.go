package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultPort is used for proxies given without a port.
const DefaultPort = 8080

// Endpoint describes a proxy by its parts.
type Endpoint struct {
	Host     string
	Port     int
	User     string
	Password string
}

// URL renders the endpoint as an http proxy URL.
func (e Endpoint) URL() (*url.URL, error) {
	if e.Host == "" {
		return nil, errors.New("context: proxy host cannot be empty")
	}
	port := e.Port
	if port == 0 {
		port = DefaultPort
	}
	u := &url.URL{Scheme: "http", Host: net.JoinHostPort(e.Host, strconv.Itoa(port))}
	if e.User != "" {
		u.User = url.UserPassword(e.User, e.Password)
	}
	return u, nil
}

// Parse reads a proxy URL. A missing scheme means http and a missing port
// means DefaultPort.
func Parse(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("context: proxy %q has no host", raw)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(DefaultPort))
	}
	return u, nil
}

type entry struct {
	url           *url.URL
	failures      int
	successes     int
	lastUsed      time.Time
	disabledUntil time.Time
}

func (e *entry) disabled(now time.Time) bool {
	return now.Before(e.disabledUntil)
}

// Stats is a snapshot of one proxy's health.
type Stats struct {
	URL       string
	Failures  int
	Successes int
	LastUsed  time.Time
	Disabled  bool
}

// Config defines settings for the Pool.
type Config struct {
	// MaxFailures before a proxy is disabled for Cooldown.
	MaxFailures int
	Cooldown    time.Duration
}

// Pool rotates over proxies, skipping those cooling down after repeated
// failures.
type Pool struct {
	mu          sync.Mutex
	entries     []*entry
	next        int
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
}

func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		now:         time.Now,
	}
}

// LoadFile reads one proxy per line. Blank lines and '#' comments are
// skipped.
func (p *Pool) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	var raws []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raws = append(raws, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("context: %w", err)
	}
	return p.Add(raws...)
}

// Add parses raw proxy URLs with Parse and appends them to the pool.
func (p *Pool) Add(raws ...string) error {
	urls := make([]*url.URL, 0, len(raws))
	for _, raw := range raws {
		u, err := Parse(raw)
		if err != nil {
			return err
		}
		urls = append(urls, u)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range urls {
		p.entries = append(p.entries, &entry{url: u})
	}
	return nil
}

// AddEndpoint appends a proxy given by its parts.
func (p *Pool) AddEndpoint(e Endpoint) error {
	u, err := e.URL()
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, &entry{url: u})
	return nil
}

// Len returns the number of proxies, healthy or not.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Next returns the next healthy proxy in round-robin order, or nil when the
// pool is empty or every proxy is cooling down.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for range p.entries {
		e := p.entries[p.next]
		p.next = (p.next + 1) % len(p.entries)

		if e.disabled(now) {
			continue
		}
		if !e.disabledUntil.IsZero() {
			// revived after cooldown
			e.disabledUntil = time.Time{}
			e.failures = 0
		}
		e.lastUsed = now
		return e.url
	}
	return nil
}

func (p *Pool) MarkSuccess(u *url.URL) error {
	return p.update(u, func(e *entry) {
		e.successes++
		if e.failures > 0 {
			e.failures--
		}
	})
}

// MarkFailure records a failed request. Reaching MaxFailures disables the
// proxy for Cooldown.
func (p *Pool) MarkFailure(u *url.URL) error {
	return p.update(u, func(e *entry) {
		e.failures++
		if e.failures >= p.maxFailures {
			e.disabledUntil = p.now().Add(p.cooldown)
		}
	})
}

func (p *Pool) update(u *url.URL, fn func(*entry)) error {
	if u == nil {
		return errors.New("context: proxyURL cannot be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	target := u.String()
	for _, e := range p.entries {
		if e.url.String() == target {
			fn(e)
			return nil
		}
	}
	return errors.New("context: proxy not found in pool")
}

// Stats returns a snapshot of every proxy's health, in pool order.
func (p *Pool) Stats() []Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	out := make([]Stats, len(p.entries))
	for i, e := range p.entries {
		out[i] = Stats{
			URL:       e.url.Redacted(),
			Failures:  e.failures,
			Successes: e.successes,
			LastUsed:  e.lastUsed,
			Disabled:  e.disabled(now),
		}
	}
	return out
}
