package lexer

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZdAkk/relex/pkgs/grammar"
)

func mustTokenizer(t *testing.T, g *grammar.Grammar, opts ...Option) *Tokenizer {
	t.Helper()
	tok, err := New(g, opts...)
	require.NoError(t, err)
	return tok
}

func keywordGrammar() *grammar.Grammar {
	g := grammar.NewGrammar("kw")
	g.AddState("start",
		&grammar.TokenRule{Token: grammar.Single("keyword.control"), Regex: "if|else"},
		&grammar.DefaultTokenRule{Token: "text"},
	)
	return g
}

func commentGrammar() *grammar.Grammar {
	g := grammar.NewGrammar("comments")
	g.AddState("start",
		&grammar.TokenRule{Token: grammar.Single("comment"), Regex: "//", Next: "linecomment"},
		&grammar.DefaultTokenRule{Token: "text"},
	)
	g.AddState("linecomment",
		&grammar.TokenRule{Token: grammar.Single("comment.line"), Regex: ".+"},
	)
	return g
}

func TestTokenizeLineKeywordAndText(t *testing.T) {
	tok := mustTokenizer(t, keywordGrammar())
	res := tok.TokenizeLine("if x", "start")
	assert.Equal(t, []Token{
		{Type: "keyword.control", Value: "if"},
		{Type: "text", Value: " x"},
	}, res.Tokens)
	assert.Equal(t, "start", res.EndState)
}

func TestTokenizeLineStateTransition(t *testing.T) {
	tok := mustTokenizer(t, commentGrammar())

	res := tok.TokenizeLine("ab //cd", "start")
	assert.Equal(t, []Token{
		{Type: "text", Value: "ab "},
		{Type: "comment", Value: "//"},
		{Type: "comment.line", Value: "cd"},
	}, res.Tokens)
	assert.Equal(t, "linecomment", res.EndState)

	// the returned state carries into the next line
	res = tok.TokenizeLine("still inside", res.EndState)
	assert.Equal(t, []Token{{Type: "comment.line", Value: "still inside"}}, res.Tokens)
	assert.Equal(t, "linecomment", res.EndState)
}

func TestTokenizeLineMergesAdjacentTokens(t *testing.T) {
	g := grammar.NewGrammar("chars")
	g.AddState("start",
		&grammar.TokenRule{Token: grammar.Single("text"), Regex: "."},
	)
	tok := mustTokenizer(t, g)

	res := tok.TokenizeLine("abc", "start")
	assert.Equal(t, []Token{{Type: "text", Value: "abc"}}, res.Tokens)
}

func TestTokenizeLineMergeDisabled(t *testing.T) {
	f := false
	g := grammar.NewGrammar("nomerge")
	g.AddState("start",
		&grammar.TokenRule{Token: grammar.Single("keyword.control"), Regex: "if", Merge: &f},
	)
	tok := mustTokenizer(t, g)

	res := tok.TokenizeLine("ifif", "start")
	assert.Equal(t, []Token{
		{Type: "keyword.control", Value: "if"},
		{Type: "keyword.control", Value: "if"},
	}, res.Tokens)
}

func TestTokenizeLineConsumeLineEnd(t *testing.T) {
	tr := true
	g := grammar.NewGrammar("continuations")
	g.AddState("start",
		&grammar.TokenRule{Token: grammar.Single("punctuation.separator"), Regex: ";", ConsumeLineEnd: &tr},
		&grammar.TokenRule{
			Token:          grammar.Single("constant.language.escape"),
			Regex:          `\\$`,
			Next:           "continuation",
			ConsumeLineEnd: &tr,
		},
		&grammar.DefaultTokenRule{Token: "text"},
	)
	g.AddState("continuation",
		&grammar.TokenRule{Token: grammar.Single("text"), Regex: ".+", Next: "start"},
	)
	tok := mustTokenizer(t, g)

	// mid-line: the consuming match advances past itself exactly once,
	// trailing text still comes out as a single token
	res := tok.TokenizeLine("a;b", "start")
	assert.Equal(t, []Token{
		{Type: "text", Value: "a"},
		{Type: "punctuation.separator", Value: ";"},
		{Type: "text", Value: "b"},
	}, res.Tokens)
	assert.Equal(t, "start", res.EndState)

	// at the line end: the match consumes the remainder and scanning
	// stops with the continuation state carried over
	res = tok.TokenizeLine(`ab \`, "start")
	assert.Equal(t, []Token{
		{Type: "text", Value: "ab "},
		{Type: "constant.language.escape", Value: `\`},
	}, res.Tokens)
	assert.Equal(t, "continuation", res.EndState)

	res = tok.TokenizeLine("cd", res.EndState)
	assert.Equal(t, []Token{{Type: "text", Value: "cd"}}, res.Tokens)
	assert.Equal(t, "start", res.EndState)
}

func TestTokenizeLineMultiLabelRule(t *testing.T) {
	g := grammar.NewGrammar("units")
	g.AddState("start",
		&grammar.TokenRule{
			Token: grammar.Multi("constant.numeric", "keyword"),
			Regex: `(\d+)(px|em)`,
		},
		&grammar.DefaultTokenRule{Token: "text"},
	)
	tok := mustTokenizer(t, g)

	res := tok.TokenizeLine("w: 42px", "start")
	assert.Equal(t, []Token{
		{Type: "text", Value: "w: "},
		{Type: "constant.numeric", Value: "42"},
		{Type: "keyword", Value: "px"},
	}, res.Tokens)
}

func TestTokenizeLineBackreferenceRule(t *testing.T) {
	g := grammar.NewGrammar("strings")
	g.AddState("start",
		&grammar.TokenRule{Token: grammar.Single("keyword.control"), Regex: "if|else"},
		&grammar.TokenRule{Token: grammar.Single("string"), Regex: `(['"]).*?\1`},
		&grammar.DefaultTokenRule{Token: "text"},
	)
	tok := mustTokenizer(t, g)

	res := tok.TokenizeLine(`say 'hi' x`, "start")
	assert.Equal(t, []Token{
		{Type: "text", Value: "say "},
		{Type: "string", Value: "'hi'"},
		{Type: "text", Value: " x"},
	}, res.Tokens)

	res = tok.TokenizeLine(`"mixed 'quotes'"`, "start")
	assert.Equal(t, []Token{{Type: "string", Value: `"mixed 'quotes'"`}}, res.Tokens)
}

func TestTokenizeLineUnknownNextState(t *testing.T) {
	g := grammar.NewGrammar("broken")
	g.AddState("start",
		&grammar.TokenRule{Token: grammar.Single("comment"), Regex: "//", Next: "linecoment"},
		&grammar.DefaultTokenRule{Token: "text"},
	)
	g.AddState("linecomment",
		&grammar.TokenRule{Token: grammar.Single("comment.line"), Regex: ".+"},
	)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	tok := mustTokenizer(t, g, WithLogger(logger))

	res := tok.TokenizeLine("//x", "start")
	assert.Equal(t, []Token{
		{Type: "comment", Value: "//"},
		{Type: "text", Value: "x"},
	}, res.Tokens)
	assert.Equal(t, "start", res.EndState)
	assert.Contains(t, buf.String(), "unknown state")
	assert.Contains(t, buf.String(), "linecomment")
}

func TestTokenizeLineUnknownStartState(t *testing.T) {
	tok := mustTokenizer(t, keywordGrammar())
	res := tok.TokenizeLine("if", "bogus")
	assert.Equal(t, []Token{{Type: "keyword.control", Value: "if"}}, res.Tokens)
	assert.Equal(t, "start", res.EndState)
}

func TestTokenizeLineWithoutStartState(t *testing.T) {
	g := grammar.NewGrammar("headless")
	g.CheckRules = false
	g.AddState("main",
		&grammar.TokenRule{Token: grammar.Single("text"), Regex: "."},
	)
	tok := mustTokenizer(t, g)

	res := tok.TokenizeLine("abc", "")
	assert.Equal(t, []Token{{Type: DefaultTokenType, Value: "abc"}}, res.Tokens)

	res = tok.TokenizeLine("", "")
	assert.Empty(t, res.Tokens)
}

func TestTokenizeLineEmptyState(t *testing.T) {
	g := grammar.NewGrammar("empty")
	g.AddState("start")
	tok := mustTokenizer(t, g)

	res := tok.TokenizeLine("abc", "start")
	assert.Equal(t, []Token{{Type: "text", Value: "abc"}}, res.Tokens)
	assert.Equal(t, "start", res.EndState)
}

func TestTokenizeLineEmptyLine(t *testing.T) {
	tok := mustTokenizer(t, keywordGrammar())
	res := tok.TokenizeLine("", "start")
	assert.Empty(t, res.Tokens)
	assert.Equal(t, "start", res.EndState)
}

func TestTokenizeLineZeroWidthMatchAdvances(t *testing.T) {
	g := grammar.NewGrammar("optional")
	g.AddState("start",
		&grammar.TokenRule{Token: grammar.Single("keyword"), Regex: "x?"},
		&grammar.DefaultTokenRule{Token: "text"},
	)
	tok := mustTokenizer(t, g)

	res := tok.TokenizeLine("ba", "start")
	assert.Equal(t, []Token{{Type: "text", Value: "ba"}}, res.Tokens)

	res = tok.TokenizeLine("bxa", "start")
	assert.Equal(t, []Token{
		{Type: "text", Value: "b"},
		{Type: "keyword", Value: "x"},
		{Type: "text", Value: "a"},
	}, res.Tokens)
}

func TestTokenizeLineOverflowGuard(t *testing.T) {
	g := grammar.NewGrammar("chars")
	g.AddState("start",
		&grammar.TokenRule{Token: grammar.Single("text"), Regex: "."},
	)
	tok := mustTokenizer(t, g)

	line := strings.Repeat("a", 2600)
	res := tok.TokenizeLine(line, "start")

	require.Len(t, res.Tokens, 3)
	assert.Equal(t, "text", res.Tokens[0].Type)
	assert.Len(t, res.Tokens[0].Value, MaxTokenCount)
	assert.Equal(t, OverflowTokenType, res.Tokens[1].Type)
	assert.Len(t, res.Tokens[1].Value, 500)
	assert.Equal(t, OverflowTokenType, res.Tokens[2].Type)
	assert.Len(t, res.Tokens[2].Value, 100)
	assert.Equal(t, "start", res.EndState)
}
