package lexer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/ZdAkk/relex/core/invariant"
	"github.com/ZdAkk/relex/pkgs/errors"
	"github.com/ZdAkk/relex/pkgs/grammar"
	"github.com/ZdAkk/relex/pkgs/pattern"
)

// compiledRule is one rule of a state after compilation. token has been
// through Multi degradation, merge defaults to enabled, and splitRe is
// set only for rules that still carve sub-tokens.
type compiledRule struct {
	token          grammar.TokenSpec
	next           string
	merge          bool
	consumeLineEnd bool
	splitRe        *regexp2.Regexp
}

// compiledState holds one grammar state's combined matcher. Every
// rule's pattern sits in its own wrapping capture group inside re, so
// the first participating group of a match identifies the rule through
// groupRule. groupCount excludes the trailing end-of-input branch.
type compiledState struct {
	re           *regexp2.Regexp
	rules        []*compiledRule
	groupRule    map[int]int
	groupCount   int
	defaultToken string
}

// compileState combines a state's rule patterns into one alternation.
// Rules are visited in order; matchTotal tracks the cumulative capture
// group count so each rule's wrapping group index, and any renumbered
// backreference, lands on the right group of the combined pattern.
func compileState(file, name string, rules []grammar.Rule, logger *slog.Logger) (*compiledState, error) {
	invariant.Precondition(name != "", "state name must not be empty")
	cs := &compiledState{
		groupRule:    make(map[int]int),
		defaultToken: DefaultTokenType,
	}
	matchTotal := 0
	var parts []string
	for i, r := range rules {
		tr, ok := r.(*grammar.TokenRule)
		if !ok {
			cs.defaultToken = r.(*grammar.DefaultTokenRule).Token
			continue
		}
		if tr.Regex == "" {
			// an empty pattern zero-length-matches at every offset
			logger.Warn("rule without a pattern is ignored", "state", name, "rule", i)
			continue
		}
		src := tr.Regex
		probe, err := regexp2.Compile(src, regexp2.None)
		if err != nil {
			return nil, errors.Wrap(errors.ErrPatternCompile,
				fmt.Sprintf("state %q rule #%d: pattern %q does not compile", name, i, src), err).
				WithContext("file", file)
		}
		groups := len(probe.GetGroupNumbers()) - 1
		matchCount := groups + 1 // the rule's own wrapping group plus its pattern's groups

		cr := &compiledRule{
			token:          tr.Token,
			next:           tr.Next,
			merge:          tr.Merge == nil || *tr.Merge,
			consumeLineEnd: tr.ConsumeLineEnd != nil && *tr.ConsumeLineEnd,
		}
		if len(cr.token.Labels) == 0 {
			// only reachable with rule checking disabled
			cr.token = grammar.Single(cs.defaultToken)
		}
		if cr.token.Multi {
			switch {
			case len(cr.token.Labels) == 1 || matchCount == 1:
				cr.token = grammar.Single(cr.token.Labels[0])
			case matchCount-1 != len(cr.token.Labels):
				logger.Warn("token label count does not match capture groups; using first label",
					"state", name, "rule", i,
					"labels", len(cr.token.Labels), "groups", matchCount-1)
				cr.token = grammar.Single(cr.token.Labels[0])
			default:
				split := pattern.BuildSplitterPattern(src)
				splitRe, err := regexp2.Compile(split, regexp2.None)
				if err != nil {
					return nil, errors.Wrap(errors.ErrPatternCompile,
						fmt.Sprintf("state %q rule #%d: splitter %q does not compile", name, i, split), err).
						WithContext("file", file)
				}
				cr.splitRe = splitRe
			}
		}

		adjusted := src
		if matchCount > 1 {
			if pattern.HasBackreference(src) {
				adjusted = pattern.RenumberBackreferences(src, matchTotal+1)
			} else {
				// sub-groups are only needed by the splitter; the
				// combined pattern just needs the overall match
				matchCount = 1
				adjusted = pattern.StripCapturingGroups(src)
			}
		}

		cs.groupRule[matchTotal+1] = len(cs.rules)
		matchTotal += matchCount
		cs.rules = append(cs.rules, cr)
		parts = append(parts, adjusted)
	}

	combined := "($)"
	if len(parts) > 0 {
		combined = "(" + strings.Join(parts, ")|(") + ")|($)"
	}
	re, err := regexp2.Compile(combined, regexp2.None)
	if err != nil {
		return nil, errors.Wrap(errors.ErrPatternCompile,
			fmt.Sprintf("state %q: combined pattern does not compile", name), err).
			WithContext("file", file)
	}
	cs.re = re
	cs.groupCount = matchTotal
	logger.Debug("compiled state",
		"state", name, "rules", len(cs.rules), "groups", matchTotal)
	return cs, nil
}
