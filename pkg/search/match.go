package search

import (
	"regexp"
	"strings"
)

// MatchKind tags how a Matcher compares text.
type MatchKind int

const (
	MatchLiteral MatchKind = iota
	MatchPattern
)

// Matcher is either a literal substring or a regular expression.
type Matcher struct {
	Kind    MatchKind
	Literal string
	Pattern *regexp.Regexp
}

// Literal matches text containing s.
func Literal(s string) Matcher {
	return Matcher{Kind: MatchLiteral, Literal: s}
}

// Pattern matches text matched by re.
func Pattern(re *regexp.Regexp) Matcher {
	return Matcher{Kind: MatchPattern, Pattern: re}
}

// Match reports whether s satisfies the matcher.
func (m Matcher) Match(s string) bool {
	switch m.Kind {
	case MatchPattern:
		return m.Pattern != nil && m.Pattern.MatchString(s)
	default:
		return strings.Contains(s, m.Literal)
	}
}

// MatchExact is Match with a literal that must equal s.
func (m Matcher) MatchExact(s string) bool {
	if m.Kind == MatchLiteral {
		return s == m.Literal
	}
	return m.Match(s)
}
