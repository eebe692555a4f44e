package search

import "strings"

// exprTerm renders one term of an expression, or "" when the term is unset.
type exprTerm func(o *Options) string

func modifier(name string, get func(o *Options) string) exprTerm {
	return func(o *Options) string {
		if v := get(o); v != "" {
			return name + ":" + v
		}
		return ""
	}
}

func group(name string, get func(o *Options) []string) exprTerm {
	return func(o *Options) string {
		var vals []string
		for _, v := range get(o) {
			if v != "" {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			return ""
		}
		return name + ":" + strings.Join(vals, " ")
	}
}

// expressionTerms is the fixed order in which terms are emitted.
var expressionTerms = []exprTerm{
	func(o *Options) string { return o.Query },

	modifier("link", func(o *Options) string { return o.Link }),
	modifier("related", func(o *Options) string { return o.Related }),
	modifier("info", func(o *Options) string { return o.Info }),
	modifier("site", func(o *Options) string { return o.Site }),
	modifier("filetype", func(o *Options) string { return o.Filetype }),

	group("allintitle", func(o *Options) []string { return o.AllInTitle }),
	modifier("intitle", func(o *Options) string { return o.InTitle }),
	group("allinurl", func(o *Options) []string { return o.AllInURL }),
	modifier("inurl", func(o *Options) string { return o.InURL }),
	group("allintext", func(o *Options) []string { return o.AllInText }),
	modifier("intext", func(o *Options) string { return o.InText }),
	group("allinanchor", func(o *Options) []string { return o.AllInAnchor }),
	modifier("inanchor", func(o *Options) string { return o.InAnchor }),

	modifier("define", func(o *Options) string { return o.Define }),

	func(o *Options) string {
		if o.ExactPhrase == "" {
			return ""
		}
		return `"` + o.ExactPhrase + `"`
	},
	func(o *Options) string {
		if o.WithWords.IsList() {
			return strings.Join(o.WithWords.list, " OR ")
		}
		return o.WithWords.phrase
	},
	func(o *Options) string {
		if !o.WithoutWords.IsList() {
			return o.WithoutWords.phrase
		}
		words := make([]string, len(o.WithoutWords.list))
		for i, w := range o.WithoutWords.list {
			words[i] = "-" + w
		}
		return strings.Join(words, " ")
	},
	func(o *Options) string {
		if o.NumericRange == nil {
			return ""
		}
		return o.NumericRange.String()
	},
}

// terms returns the non-empty expression terms in emission order.
func (o *Options) terms() []string {
	var out []string
	for _, s := range o.termList() {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Expression builds the query-language string sent as the primary search
// term. It is empty when nothing is set.
func (o *Options) Expression() string {
	return strings.Join(o.terms(), " ")
}

// termList renders every term in emission order, keeping empty slots so
// indexes line up with expressionTerms.
func (o *Options) termList() []string {
	out := make([]string, len(expressionTerms))
	for i, t := range expressionTerms {
		out[i] = t(o)
	}
	return out
}
