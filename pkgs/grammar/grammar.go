// Package grammar models declarative tokenizer grammars: named states
// holding ordered rule lists, loaded from JSON definition files,
// validated, and merged with inherited parent grammars. A Grammar is
// built once and never mutated afterwards.
package grammar

import (
	"path/filepath"
	"strings"
)

// NoExtension is the sentinel extension entry permitting source files
// without any extension.
const NoExtension = "no-ext"

// TokenSpec is the resolved form of a rule's "token" option. Multi is
// true when the option was declared as an array, in which case each
// label maps to one capture group of the rule's pattern.
type TokenSpec struct {
	Labels []string
	Multi  bool
}

// Single builds the spec for a plain string token option.
func Single(label string) TokenSpec {
	return TokenSpec{Labels: []string{label}}
}

// Multi builds the spec for an array token option.
func Multi(labels ...string) TokenSpec {
	return TokenSpec{Labels: labels, Multi: true}
}

// Rule is one entry in a state's rule list. The two variants are
// mutually exclusive by construction: a DefaultTokenRule cannot carry
// pattern options at all.
type Rule interface {
	isRule()
}

// TokenRule maps a pattern to one or more token labels, optionally
// switching the tokenizer to another state. Merge and ConsumeLineEnd
// are pointers so an explicitly declared option stays distinguishable
// from an absent one; rule identity during inheritance merging depends
// on that distinction.
type TokenRule struct {
	Token          TokenSpec
	Regex          string
	Next           string
	Merge          *bool
	ConsumeLineEnd *bool
}

func (*TokenRule) isRule() {}

// DefaultTokenRule overrides the label given to text no other rule in
// the state claims.
type DefaultTokenRule struct {
	Token string
}

func (*DefaultTokenRule) isRule() {}

// Grammar is the compiled, named collection of states used to tokenize
// one language or file family.
type Grammar struct {
	Name        string
	File        string
	Extensions  []string
	CheckRules  bool
	InheritFrom string
	States      map[string][]Rule

	stateOrder []string
}

// NewGrammar assembles an empty grammar for callers building states in
// code. Grammars defined in files come from Load instead.
func NewGrammar(name string) *Grammar {
	return &Grammar{
		Name:       name,
		CheckRules: true,
		States:     make(map[string][]Rule),
	}
}

// AddState appends a state. Re-adding a name replaces its rules and
// keeps the original position.
func (g *Grammar) AddState(name string, rules ...Rule) *Grammar {
	if _, ok := g.States[name]; !ok {
		g.stateOrder = append(g.stateOrder, name)
	}
	g.States[name] = rules
	return g
}

// StateNames returns the state names in declaration order, inherited
// states after declared ones.
func (g *Grammar) StateNames() []string {
	out := make([]string, len(g.stateOrder))
	copy(out, g.stateOrder)
	return out
}

// AllowsFile reports whether a source file name satisfies the grammar's
// declared extensions. A grammar with no extensions accepts anything;
// the NoExtension sentinel accepts names without any dot.
func (g *Grammar) AllowsFile(name string) bool {
	if len(g.Extensions) == 0 {
		return true
	}
	base := filepath.Base(name)
	for _, ext := range g.Extensions {
		if ext == NoExtension {
			if !strings.Contains(base, ".") {
				return true
			}
			continue
		}
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}
