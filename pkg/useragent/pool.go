package useragent

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"sync/atomic"
)

// DefaultPool is a set of current desktop browser User-Agents.
var DefaultPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// Aliases maps short browser names to full User-Agent strings. Lookups are
// case-insensitive.
var Aliases = map[string]string{
	"Windows IE 6":    "Mozilla/4.0 (compatible; MSIE 6.0; Windows NT 5.1)",
	"Windows IE 7":    "Mozilla/4.0 (compatible; MSIE 7.0; Windows NT 5.1; .NET CLR 1.1.4322; .NET CLR 2.0.50727)",
	"Windows Mozilla": "Mozilla/5.0 (Windows; U; Windows NT 5.0; en-US; rv:1.4b) Gecko/20030516 Mozilla Firebird/0.6",
	"Windows Chrome":  DefaultPool[0],
	"Windows Edge":    DefaultPool[6],
	"Mac Safari":      DefaultPool[5],
	"Mac FireFox":     DefaultPool[4],
	"Mac Chrome":      DefaultPool[2],
	"Linux Firefox":   "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Linux Konqueror": "Mozilla/5.0 (compatible; Konqueror/3; Linux)",
	"iPhone":          "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
}

// Lookup returns the User-Agent for an alias.
func Lookup(alias string) (string, error) {
	for name, ua := range Aliases {
		if strings.EqualFold(name, strings.TrimSpace(alias)) {
			return ua, nil
		}
	}
	return "", fmt.Errorf("context: unknown user agent alias %q", alias)
}

// AliasNames returns the alias names, sorted.
func AliasNames() []string {
	names := make([]string, 0, len(Aliases))
	for name := range Aliases {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Strategy selects how Next walks the pool.
type Strategy int

const (
	Sequential Strategy = iota
	Random
)

// Pool hands out User-Agents. It is safe for concurrent use.
type Pool struct {
	uas      []string
	strategy Strategy
	counter  atomic.Uint64
}

// NewPool returns a pool over uas, or over DefaultPool when uas is empty.
func NewPool(uas []string) *Pool {
	if len(uas) == 0 {
		uas = DefaultPool
	}
	return &Pool{uas: slices.Clone(uas)}
}

// Fixed returns a pool that always yields ua.
func Fixed(ua string) *Pool {
	return &Pool{uas: []string{ua}}
}

// FromAlias returns a pool that always yields the User-Agent of alias.
func FromAlias(alias string) (*Pool, error) {
	ua, err := Lookup(alias)
	if err != nil {
		return nil, err
	}
	return Fixed(ua), nil
}

// WithStrategy sets the selection strategy and returns the pool.
func (p *Pool) WithStrategy(s Strategy) *Pool {
	p.strategy = s
	return p
}

// Next returns a User-Agent according to the pool's strategy.
func (p *Pool) Next() string {
	if p.strategy == Random {
		return p.random()
	}
	return p.sequential()
}

func (p *Pool) sequential() string {
	if len(p.uas) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

func (p *Pool) random() string {
	if len(p.uas) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.uas))))
	if err != nil {
		return p.sequential()
	}
	return p.uas[n.Int64()]
}

// All returns a copy of the pool's User-Agents.
func (p *Pool) All() []string {
	return slices.Clone(p.uas)
}
