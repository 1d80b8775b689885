package lexer

import (
	"log/slog"
	"sort"

	"github.com/dlclark/regexp2"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ZdAkk/relex/core/invariant"
	"github.com/ZdAkk/relex/pkgs/grammar"
)

// Tokenizer scans lines of text against a compiled grammar. It is
// immutable after New and safe for concurrent use; callers scanning one
// file thread each line's EndState into the next call themselves.
type Tokenizer struct {
	grammar *grammar.Grammar
	states  map[string]*compiledState
	logger  *slog.Logger
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithLogger overrides the default diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tokenizer) { t.logger = l }
}

// New compiles every state of a constructed grammar.
func New(g *grammar.Grammar, opts ...Option) (*Tokenizer, error) {
	invariant.NotNil(g, "grammar")
	t := &Tokenizer{
		grammar: g,
		states:  make(map[string]*compiledState, len(g.States)),
		logger:  newLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, name := range g.StateNames() {
		cs, err := compileState(g.File, name, g.States[name], t.logger)
		if err != nil {
			return nil, err
		}
		t.states[name] = cs
	}
	return t, nil
}

// FromFile loads, validates, and compiles a grammar in one call.
func FromFile(path string, forceCheckRules bool, opts ...Option) (*Tokenizer, error) {
	g, err := grammar.Load(path, forceCheckRules)
	if err != nil {
		return nil, err
	}
	return New(g, opts...)
}

// Grammar returns the grammar this tokenizer was compiled from.
func (t *Tokenizer) Grammar() *grammar.Grammar {
	return t.grammar
}

// TokenizeLine scans one line starting in startState. An empty or
// unknown start state falls back to "start". The returned EndState is
// the carry-over state for the following line.
func (t *Tokenizer) TokenizeLine(line, startState string) ScanResult {
	current := startState
	if current == "" {
		current = StartState
	}
	cs, ok := t.states[current]
	if !ok {
		current = StartState
		cs = t.states[current]
	}
	if cs == nil {
		// no "start" state; possible only with rule checking disabled
		if line == "" {
			return ScanResult{EndState: current}
		}
		return ScanResult{
			Tokens:   []Token{{Type: DefaultTokenType, Value: line}},
			EndState: current,
		}
	}

	runes := []rune(line)
	n := len(runes)
	var tokens []Token
	var pending Token
	flush := func() {
		if pending.Type != "" {
			tokens = append(tokens, pending)
		}
		pending = Token{}
	}

	offset, lastIndex, attempts := 0, 0, 0
	for offset <= n {
		m, err := cs.re.FindRunesMatchStartingAt(runes, offset)
		if err != nil || m == nil {
			break
		}
		attempts++
		if attempts > MaxTokenCount {
			// pathological pattern set: emit the unscanned remainder in
			// fixed-size chunks instead of trusting it to terminate
			for lastIndex < n {
				flush()
				end := lastIndex + overflowChunkSize
				if end > n {
					end = n
				}
				pending = Token{Type: OverflowTokenType, Value: string(runes[lastIndex:end])}
				lastIndex = end
			}
			current = StartState
			break
		}

		start := m.Index
		end := start + m.Length
		value := m.String()
		invariant.Invariant(start >= offset, "match must not start before the scan position")

		if start > lastIndex {
			skipped := string(runes[lastIndex:start])
			if pending.Type == cs.defaultToken {
				pending.Value += skipped
			} else {
				flush()
				pending = Token{Type: cs.defaultToken, Value: skipped}
			}
			lastIndex = start
		}

		if end == start && start == offset {
			if offset >= n {
				break
			}
			// zero-length match at the scan position; step over one
			// rune so the loop cannot stall
			offset++
			continue
		}

		rule := t.resolveRule(cs, m)
		if rule != nil {
			if rule.next != "" {
				next := rule.next
				ncs, ok := t.states[next]
				if !ok {
					t.logger.Warn("rule transitions to unknown state",
						"state", current, "next", next,
						"suggestion", t.closestState(next))
					next = StartState
					ncs = t.states[next]
				}
				if ncs != nil {
					current = next
					cs = ncs
				}
				lastIndex = end
			}
			if rule.consumeLineEnd {
				lastIndex = end
			}
		}

		if value != "" {
			if rule != nil && rule.token.Multi {
				flush()
				tokens = append(tokens, splitTokens(rule, value)...)
			} else {
				label := cs.defaultToken
				if rule != nil {
					label = rule.token.Labels[0]
				}
				if pending.Type == label && (rule == nil || rule.merge) {
					pending.Value += value
				} else {
					flush()
					pending = Token{Type: label, Value: value}
				}
			}
		}

		if lastIndex >= n {
			break
		}
		lastIndex = end
		offset = end
	}

	flush()
	return ScanResult{Tokens: tokens, EndState: current}
}

// resolveRule finds which rule fired: the lowest capture group that
// participated in the match, resolved through the state's group map.
// The end-of-input branch sits past groupCount and resolves to no rule.
func (t *Tokenizer) resolveRule(cs *compiledState, m *regexp2.Match) *compiledRule {
	groups := m.Groups()
	for gi := 1; gi <= cs.groupCount && gi < len(groups); gi++ {
		if len(groups[gi].Captures) == 0 {
			continue
		}
		if idx, ok := cs.groupRule[gi]; ok {
			return cs.rules[idx]
		}
		return nil
	}
	return nil
}

// splitTokens carves a multi-label rule's matched text into one token
// per label using the rule's splitter pattern. Labels whose group
// captured nothing are skipped; if the splitter fails to re-match, the
// whole value degrades to a single default token.
func splitTokens(rule *compiledRule, value string) []Token {
	m, err := rule.splitRe.FindStringMatch(value)
	if err != nil || m == nil {
		return []Token{{Type: DefaultTokenType, Value: value}}
	}
	groups := m.Groups()
	out := make([]Token, 0, len(rule.token.Labels))
	for i, label := range rule.token.Labels {
		gi := i + 1
		if gi >= len(groups) || len(groups[gi].Captures) == 0 {
			continue
		}
		if v := groups[gi].String(); v != "" {
			out = append(out, Token{Type: label, Value: v})
		}
	}
	return out
}

// closestState suggests the most similar known state name.
func (t *Tokenizer) closestState(name string) string {
	candidates := make([]string, 0, len(t.states))
	for s := range t.states {
		candidates = append(candidates, s)
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
