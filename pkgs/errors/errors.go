package errors

import (
	"fmt"
	"strings"
)

// Error types for different categories of failures
const (
	// Grammar loading errors
	ErrGrammarNotFound = "GRAMMAR_NOT_FOUND"
	ErrGrammarRead     = "GRAMMAR_READ_ERROR"
	ErrGrammarDecode   = "GRAMMAR_DECODE_ERROR"

	// Compilation errors
	ErrPatternCompile = "PATTERN_COMPILE_ERROR"

	// Scanning preconditions
	ErrSourceNotFound    = "SOURCE_NOT_FOUND"
	ErrSourceRead        = "SOURCE_READ_ERROR"
	ErrExtensionMismatch = "EXTENSION_MISMATCH"
)

// LexError represents a structured error with type and context
type LexError struct {
	Type    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *LexError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows error unwrapping
func (e *LexError) Unwrap() error {
	return e.Cause
}

// New creates a new LexError
func New(errorType, message string) *LexError {
	return &LexError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Wrap creates a new LexError wrapping an existing error
func Wrap(errorType, message string, cause error) *LexError {
	return &LexError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *LexError) WithContext(key string, value interface{}) *LexError {
	e.Context[key] = value
	return e
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType string) bool {
	if lexErr, ok := err.(*LexError); ok {
		return lexErr.Type == errorType
	}
	return false
}

// SchemaError is a fatal construction error raised when a grammar
// definition is structurally malformed. It pins down where in the
// definition the violation sits: grammar file, state name, the state's
// ordinal position, the rule's ordinal position within the state, and
// the failing option key. Fields that do not apply are left at their
// zero value (RuleIndex -1 for state-level violations).
type SchemaError struct {
	File       string
	State      string
	StateIndex int
	RuleIndex  int
	Option     string
	Message    string
	Cause      error
}

// NewSchemaError creates a grammar-level SchemaError with no state or
// rule context.
func NewSchemaError(file, message string) *SchemaError {
	return &SchemaError{File: file, StateIndex: -1, RuleIndex: -1, Message: message}
}

// NewStateSchemaError creates a SchemaError scoped to one state.
func NewStateSchemaError(file, state string, stateIndex int, message string) *SchemaError {
	return &SchemaError{File: file, State: state, StateIndex: stateIndex, RuleIndex: -1, Message: message}
}

// NewRuleSchemaError creates a SchemaError scoped to one rule option.
func NewRuleSchemaError(file, state string, stateIndex, ruleIndex int, option, message string) *SchemaError {
	return &SchemaError{
		File:       file,
		State:      state,
		StateIndex: stateIndex,
		RuleIndex:  ruleIndex,
		Option:     option,
		Message:    message,
	}
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("SCHEMA_ERROR: ")
	if e.File != "" {
		fmt.Fprintf(&b, "%s: ", e.File)
	}
	if e.State != "" {
		fmt.Fprintf(&b, "state %q (#%d): ", e.State, e.StateIndex)
	}
	if e.RuleIndex >= 0 {
		fmt.Fprintf(&b, "rule #%d: ", e.RuleIndex)
	}
	if e.Option != "" {
		fmt.Fprintf(&b, "option %q: ", e.Option)
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Cause)
	}
	return b.String()
}

// Unwrap allows error unwrapping
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// WithCause attaches an underlying error
func (e *SchemaError) WithCause(cause error) *SchemaError {
	e.Cause = cause
	return e
}

// IsSchemaError reports whether err is a SchemaError.
func IsSchemaError(err error) bool {
	_, ok := err.(*SchemaError)
	return ok
}
