package search

import (
	"net/url"
	"strconv"
)

// activeMarker is how a boolean true is written on the wire.
const activeMarker = "active"

// Params is the query-parameter model for search URLs. Parameter order is
// not significant and each name holds a single value.
type Params struct {
	values url.Values
}

func NewParams() Params {
	return Params{values: url.Values{}}
}

// ParseParams reads the query string of u.
func ParseParams(u *url.URL) Params {
	return Params{values: u.Query()}
}

// Set stores value under name. true is written as "active"; nil and false
// leave a bare "name=".
func (p Params) Set(name string, value any) {
	var s string
	switch v := value.(type) {
	case nil:
	case string:
		s = v
	case int:
		s = strconv.Itoa(v)
	case bool:
		if v {
			s = activeMarker
		}
	case interface{ String() string }:
		s = v.String()
	}
	p.values.Set(name, s)
}

// SetIf stores a string value only when it is non-empty.
func (p Params) SetIf(name, value string) {
	if value != "" {
		p.values.Set(name, value)
	}
}

func (p Params) Get(name string) string {
	return p.values.Get(name)
}

// Has reports whether name is present, even with an empty value.
func (p Params) Has(name string) bool {
	return p.values.Has(name)
}

// Int returns the integer value of name, or def when absent or malformed.
func (p Params) Int(name string, def int) int {
	n, err := strconv.Atoi(p.values.Get(name))
	if err != nil {
		return def
	}
	return n
}

// Active reports whether name carries the boolean marker.
func (p Params) Active(name string) bool {
	return p.values.Get(name) == activeMarker
}

func (p Params) Encode() string {
	return p.values.Encode()
}
