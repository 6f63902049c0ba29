package session

import (
	"strings"
	"unicode"

	"github.com/oakwood-commons/propinspect/pkg/instance"
	"github.com/oakwood-commons/propinspect/pkg/schema"
)

// Tokenize lower-cases query and splits it on whitespace and punctuation.
func Tokenize(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// ComputeSearchMatches maps every property name to whether it matches query.
//
// Every token must occur in the display name or the raw name. In
// SearchModified mode a property must also be modified (itself or through a
// bound extra). A final pass marks the ancestors of every matching property
// so a matching sub keeps its group visible.
func ComputeSearchMatches(sc *schema.Data, d *instance.Data, query string, mode SearchMode) map[string]bool {
	tokens := Tokenize(query)
	own := make([]bool, sc.Len())
	for i := 0; i < sc.Len(); i++ {
		n := sc.Node(i)
		match := matchesTokens(n, tokens)
		if match && mode == SearchModified {
			match = isModified(sc, d, i)
		}
		own[i] = match
	}

	result := make(map[string]bool, sc.Len())
	for i, ok := range own {
		if ok {
			result[sc.Node(i).Name] = true
		} else if _, seen := result[sc.Node(i).Name]; !seen {
			result[sc.Node(i).Name] = false
		}
	}
	for i, ok := range own {
		if !ok {
			continue
		}
		for _, a := range sc.Ancestors(i) {
			result[sc.Node(a).Name] = true
		}
	}
	return result
}

func matchesTokens(n *schema.Node, tokens []string) bool {
	if len(tokens) == 0 {
		return true
	}
	display := strings.ToLower(n.DisplayName)
	name := strings.ToLower(n.Name)
	for _, tok := range tokens {
		if !strings.Contains(display, tok) && !strings.Contains(name, tok) {
			return false
		}
	}
	return true
}

func isModified(sc *schema.Data, d *instance.Data, i int) bool {
	if d.Prop(i).HasModified {
		return true
	}
	for _, extra := range sc.Node(i).ExtraProperties {
		if j, ok := sc.Lookup(extra); ok && d.Prop(j).HasModified {
			return true
		}
	}
	return false
}
