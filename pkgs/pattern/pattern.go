// Package pattern implements pure text-to-text transforms over regex
// source strings. The transforms only need to understand enough regex
// syntax to walk a pattern safely: escapes, character classes, and
// group openers. They never compile anything.
package pattern

import (
	"strconv"
	"strings"
)

// StripCapturingGroups rewrites every bare "(" group opener to the
// non-capturing "(?:" form. Escaped characters, character-class
// contents, and group openers that already carry a "?" qualifier
// (non-capturing, lookaround, named) pass through verbatim. A literal
// empty group "()" is kept as-is; it is an explicit "insert empty
// token here" marker and must not become "(?:)".
func StripCapturingGroups(src string) string {
	var b strings.Builder
	b.Grow(len(src) + 8)
	inClass := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			b.WriteByte(c)
			b.WriteByte(src[i+1])
			i++
		case inClass:
			b.WriteByte(c)
			if c == ']' {
				inClass = false
			}
		case c == '[':
			b.WriteByte(c)
			inClass = true
		case c == '(':
			switch {
			case i+1 < len(src) && src[i+1] == '?':
				b.WriteByte(c)
			case i+1 < len(src) && src[i+1] == ')':
				// literal empty group
				b.WriteString("()")
				i++
			default:
				b.WriteString("(?:")
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// HasBackreference reports whether src contains a numeric backreference
// (a "\\" escape followed by digits) outside any character class, where
// such an escape would be an octal class atom instead.
func HasBackreference(src string) bool {
	inClass := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			if !inClass && src[i+1] >= '1' && src[i+1] <= '9' {
				return true
			}
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		}
	}
	return false
}

// RenumberBackreferences shifts every numeric backreference in src by
// offset. The pattern is walked with the same escape and class tracking
// as the other transforms, each occurrence is parsed to an integer, and
// the shifted number is written back. Literal digit sequences are never
// touched.
func RenumberBackreferences(src string, offset int) string {
	var b strings.Builder
	b.Grow(len(src) + 8)
	inClass := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			if !inClass && src[i+1] >= '1' && src[i+1] <= '9' {
				j := i + 1
				for j < len(src) && src[j] >= '0' && src[j] <= '9' {
					j++
				}
				n, _ := strconv.Atoi(src[i+1 : j])
				b.WriteByte('\\')
				b.WriteString(strconv.Itoa(n + offset))
				i = j - 1
			} else {
				b.WriteByte(c)
				b.WriteByte(src[i+1])
				i++
			}
		case inClass:
			b.WriteByte(c)
			if c == ']' {
				inClass = false
			}
		case c == '[':
			b.WriteByte(c)
			inClass = true
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// BuildSplitterPattern derives the anchored pattern used to carve a
// multi-label rule's match into sub-tokens. If the pattern ends in a
// lookahead group (possibly wrapped in closing parens), that group is
// excised first: the lookahead constrained where the overall match
// could end, which the already-matched text no longer needs. The result
// gains "^" and "$" anchors unless already present.
func BuildSplitterPattern(src string) string {
	if strings.Contains(src, "(?=") || strings.Contains(src, "(?!") {
		src = exciseTrailingLookahead(src)
	}
	if !strings.HasPrefix(src, "^") {
		src = "^" + src
	}
	if !strings.HasSuffix(src, "$") {
		src += "$"
	}
	return src
}

// exciseTrailingLookahead removes the last lookahead group when it
// spans to the end of the pattern. Parenthesis nesting depth is tracked
// so the group's closing paren is found even with nested groups inside.
func exciseTrailingLookahead(src string) string {
	depth := 0
	inClass := false
	lastStart, lastEnd, lastDepth := -1, -1, -1
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src):
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '(':
			depth++
			if i+2 < len(src) && src[i+1] == '?' && (src[i+2] == '=' || src[i+2] == '!') {
				lastStart = i
				lastDepth = depth
				i += 2
			}
		case c == ')':
			if depth == lastDepth {
				lastEnd = i + 1
				lastDepth = -1
			}
			depth--
		}
	}
	if lastEnd < 0 {
		return src
	}
	if strings.Trim(src[lastEnd:], ")") != "" {
		return src
	}
	return src[:lastStart] + src[lastEnd:]
}
