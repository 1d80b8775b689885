// Package taxonomy holds the fixed hierarchical vocabulary of token
// names a grammar may assign to its rules. A token label is a dotted
// path into the hierarchy: every segment must descend into a nested
// group, and the final segment must land exactly on a node. "text.line"
// is invalid because "text" is a leaf with no children; "storage" alone
// is valid even though "storage.type" descends further.
package taxonomy

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// group is one level of the hierarchy. A nil map marks a leaf.
type group map[string]group

var tokenNames = group{
	"comment": {"line": nil, "block": nil, "doc": nil},
	"constant": {
		"numeric":   nil,
		"character": {"escape": nil},
		"language":  {"boolean": nil, "escape": nil},
		"other":     nil,
	},
	"entity": {
		"name":  {"function": nil, "tag": nil, "type": nil},
		"other": {"attribute-name": nil},
	},
	"invalid": {"illegal": nil, "deprecated": nil},
	"keyword": {"control": nil, "operator": nil, "other": nil},
	"markup": {
		"heading": nil, "list": nil, "bold": nil, "italic": nil,
		"underline": nil, "link": nil, "quote": nil, "raw": nil,
	},
	"meta":        {"tag": nil},
	"overflow":    nil,
	"paren":       {"lparen": nil, "rparen": nil},
	"punctuation": {"operator": nil, "separator": nil},
	"storage":     {"type": nil, "modifier": nil},
	"string": {
		"regexp":       nil,
		"quoted":       {"single": nil, "double": nil},
		"unquoted":     nil,
		"interpolated": nil,
	},
	"support":  {"function": nil, "constant": nil, "type": nil, "class": nil, "other": nil},
	"text":     nil,
	"variable": {"language": nil, "parameter": nil, "other": nil},
}

// Valid reports whether a single dotted label resolves against the
// hierarchy.
func Valid(label string) bool {
	if label == "" {
		return false
	}
	cur := tokenNames
	start := 0
	for i := 0; i <= len(label); i++ {
		if i < len(label) && label[i] != '.' {
			continue
		}
		seg := label[start:i]
		child, ok := cur[seg]
		if !ok {
			return false
		}
		cur = child
		start = i + 1
	}
	return true
}

// Check validates a list of labels, as declared by one rule. It returns
// false on the first invalid label; an empty list is invalid.
func Check(labels []string) bool {
	if len(labels) == 0 {
		return false
	}
	for _, l := range labels {
		if !Valid(l) {
			return false
		}
	}
	return true
}

// Names returns every valid dotted label, sorted. Intermediate group
// names are themselves valid labels and are included.
func Names() []string {
	var out []string
	var walk func(prefix string, g group)
	walk = func(prefix string, g group) {
		for name, child := range g {
			full := name
			if prefix != "" {
				full = prefix + "." + name
			}
			out = append(out, full)
			if child != nil {
				walk(full, child)
			}
		}
	}
	walk("", tokenNames)
	sort.Strings(out)
	return out
}

// Closest finds the closest valid label using fuzzy matching. Returns
// "" when nothing ranks.
func Closest(label string) string {
	ranks := fuzzy.RankFindFold(label, Names())
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	return ""
}
