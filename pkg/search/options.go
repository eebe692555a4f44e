package search

import (
	"regexp"
	"strconv"
	"strings"
)

// Words holds a with/without word set. It is either a phrase used verbatim
// or a list of individual words; the two render differently in expressions.
type Words struct {
	phrase string
	list   []string
}

// Phrase returns a Words value that is emitted verbatim.
func Phrase(s string) Words {
	return Words{phrase: s}
}

// WordList returns a Words value holding individual words.
func WordList(words ...string) Words {
	return Words{list: append([]string(nil), words...)}
}

// IsZero reports whether no words are set.
func (w Words) IsZero() bool {
	return w.phrase == "" && len(w.list) == 0
}

// IsList reports whether the words were given as a list.
func (w Words) IsList() bool {
	return len(w.list) > 0
}

// List returns a copy of the word list, or nil for a phrase.
func (w Words) List() []string {
	return append([]string(nil), w.list...)
}

// String renders the words as they appear in the as_oq/as_eq parameters.
func (w Words) String() string {
	if w.IsList() {
		return strings.Join(w.list, " ")
	}
	return w.phrase
}

// Range is an inclusive numeric range, rendered as "low..high".
type Range struct {
	Low  int
	High int
}

func (r Range) String() string {
	return strconv.Itoa(r.Low) + ".." + strconv.Itoa(r.High)
}

// PatternTerm returns the source text of re for use as a modifier value.
func PatternTerm(re *regexp.Regexp) string {
	if re == nil {
		return ""
	}
	return re.String()
}

// Options holds the modifiers shared by every query endpoint.
type Options struct {
	// SearchHost defaults to DefaultHost.
	SearchHost string
	// LoadBalance picks a random host from Hosts for every URL built.
	LoadBalance bool

	Query    string
	Language string

	Link     string
	Related  string
	Info     string
	Site     string
	Filetype string

	AllInTitle  []string
	InTitle     string
	AllInURL    []string
	InURL       string
	AllInText   []string
	InText      string
	AllInAnchor []string
	InAnchor    string

	Define string

	ExactPhrase  string
	WithWords    Words
	WithoutWords Words
	NumericRange *Range
}

// Host returns the host the next URL will be built for.
func (o *Options) Host() string {
	return resolveHost(o.SearchHost, o.LoadBalance)
}
