package lexer

// Token is one typed span of scanned text. Type is a dotted taxonomy
// label; a flushed token always carries one.
type Token struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ScanResult is the outcome of scanning one line. EndState is the
// grammar state the tokenizer finished in and becomes the next line's
// start state.
type ScanResult struct {
	Tokens   []Token `json:"tokens"`
	EndState string  `json:"endState"`
}

const (
	// StartState is the state every scan begins in and the state the
	// tokenizer falls back to when a transition names an unknown state.
	StartState = "start"

	// DefaultTokenType labels text no rule claims, unless a state
	// declares its own default_token.
	DefaultTokenType = "text"

	// OverflowTokenType labels the fixed-size chunks emitted when the
	// termination guard trips.
	OverflowTokenType = "overflow"

	// MaxTokenCount bounds the match attempts spent on a single line.
	// Beyond it the pattern set is treated as pathological and the rest
	// of the line is emitted as overflow chunks.
	MaxTokenCount = 2000

	// overflowChunkSize is the rune length of one overflow chunk.
	overflowChunkSize = 500
)
