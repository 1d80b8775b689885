package pattern

import (
	"testing"
)

func TestStripCapturingGroups(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain groups", "(a)(b)", "(?:a)(?:b)"},
		{"nested groups", "((a)b)", "(?:(?:a)b)"},
		{"escaped parens", `\(a\)`, `\(a\)`},
		{"paren in class", "[(]a[)]", "[(]a[)]"},
		{"already non-capturing", "(?:x)+", "(?:x)+"},
		{"lookahead", "a(?=b)", "a(?=b)"},
		{"negative lookahead", "a(?!b)", "a(?!b)"},
		{"empty group kept", "a()b", "a()b"},
		{"group with class inside", `(["'])`, `(?:["'])`},
		{"class with escaped bracket", `[\]a](b)`, `[\]a](?:b)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripCapturingGroups(tt.input)
			if got != tt.expected {
				t.Errorf("StripCapturingGroups(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStripCapturingGroupsIdempotent(t *testing.T) {
	inputs := []string{"(a)(b)", "((a)b)", "a()b", `\(a\)`, "(?=x)(y)", "[(](a)"}
	for _, in := range inputs {
		once := StripCapturingGroups(in)
		twice := StripCapturingGroups(once)
		if once != twice {
			t.Errorf("StripCapturingGroups not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestHasBackreference(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{`(a)\1`, true},
		{`(['"]).*?\1`, true},
		{`\\1`, false},
		{`[\1]`, false},
		{`(a)b`, false},
		{`\0`, false},
	}
	for _, tt := range tests {
		if got := HasBackreference(tt.input); got != tt.expected {
			t.Errorf("HasBackreference(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestRenumberBackreferences(t *testing.T) {
	tests := []struct {
		input    string
		offset   int
		expected string
	}{
		{`(a)\1`, 2, `(a)\3`},
		{`(a)(b)\2\1`, 5, `(a)(b)\7\6`},
		{`\10`, 2, `\12`},
		{`a12`, 3, `a12`},
		{`[\1]`, 3, `[\1]`},
		{`\\1`, 3, `\\1`},
	}
	for _, tt := range tests {
		if got := RenumberBackreferences(tt.input, tt.offset); got != tt.expected {
			t.Errorf("RenumberBackreferences(%q, %d) = %q, want %q", tt.input, tt.offset, got, tt.expected)
		}
	}
}

func TestBuildSplitterPattern(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain pattern gains anchors", "(a)(b)", "^(a)(b)$"},
		{"already anchored", "^ab$", "^ab$"},
		{"trailing lookahead excised", "xc(?=([x)(]))", "^xc$"},
		{"lookahead wrapped in parens", "(ab(?=c))", "^(ab)$"},
		{"mid-pattern lookahead kept", "a(?=b)c", "^a(?=b)c$"},
		{"negative trailing lookahead excised", "ab(?!c)", "^ab$"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSplitterPattern(tt.input)
			if got != tt.expected {
				t.Errorf("BuildSplitterPattern(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
