// Package zen implements the Zen line interpreter: a flat list of
// statements with integer variables, labels and goto.
package zen

import (
	"errors"
	"fmt"
)

// Statement-level errors. None of them stops a run; each is reported to
// the diagnostics sink and execution continues with the next line.
var (
	ErrUndefinedVariable   = errors.New("variable is not initialized")
	ErrMalformedAssignment = errors.New("invalid variable declaration syntax")
	ErrMalformedPrint      = errors.New("could not parse print argument")
	ErrMalformedCondition  = errors.New("could not parse condition")
	ErrUnknownCommand      = errors.New("no command found or invalid label")
	ErrArgumentOutOfRange  = errors.New("argument index out of bounds")
	ErrEvaluation          = errors.New("could not evaluate expression")
	ErrUnresolvedLabel     = errors.New("label not found")
	ErrInvalidValue        = errors.New("invalid value for variable")
	ErrDuplicateLabel      = errors.New("duplicate label")
)

// Error categories.
const (
	ErrCategorySyntax     = "SYNTAX ERROR"
	ErrCategoryRuntime    = "RUNTIME ERROR"
	ErrCategoryEvaluation = "EVALUATION ERROR"
	ErrCategoryLoad       = "LOAD ERROR"
)

var errorCategories = map[error]string{
	ErrUndefinedVariable:   ErrCategoryRuntime,
	ErrMalformedAssignment: ErrCategorySyntax,
	ErrMalformedPrint:      ErrCategorySyntax,
	ErrMalformedCondition:  ErrCategorySyntax,
	ErrUnknownCommand:      ErrCategorySyntax,
	ErrArgumentOutOfRange:  ErrCategoryRuntime,
	ErrEvaluation:          ErrCategoryEvaluation,
	ErrUnresolvedLabel:     ErrCategoryRuntime,
	ErrInvalidValue:        ErrCategoryEvaluation,
	ErrDuplicateLabel:      ErrCategoryLoad,
}

// friendlyTexts are the messages shown to script authors.
var friendlyTexts = map[error]string{
	ErrUndefinedVariable:   "Variable is not initialized",
	ErrMalformedAssignment: "Invalid variable declaration syntax",
	ErrMalformedPrint:      "Could not parse argument",
	ErrMalformedCondition:  "Could not parse condition",
	ErrUnknownCommand:      "No command found or invalid label",
	ErrArgumentOutOfRange:  "Argument index out of bounds",
	ErrEvaluation:          "Could not evaluate expression",
	ErrUnresolvedLabel:     "Label not found",
	ErrInvalidValue:        "Invalid value for variable",
	ErrDuplicateLabel:      "Duplicate label ignored",
}

// Error is a diagnostic tied to a program line.
type Error struct {
	Category string
	Err      error  // one of the sentinels above
	Line     int    // 1-based source line, 0 if unknown
	Token    string // offending token, may be empty
	Detail   string // extra explanation, e.g. the evaluator message
	Cause    error  // underlying error, e.g. from the evaluator
}

// NewError creates an Error for sentinel err about token.
func NewError(err error, token string) *Error {
	return &Error{
		Category: errorCategories[err],
		Err:      err,
		Token:    token,
	}
}

// WithDetail attaches an explanation.
func (e *Error) WithDetail(format string, args ...interface{}) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithCause attaches the underlying error and uses its text as detail.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	if cause != nil && e.Detail == "" {
		e.Detail = cause.Error()
	}
	return e
}

// AtLine sets the source line number.
func (e *Error) AtLine(line int) *Error {
	e.Line = line
	return e
}

func (e *Error) Error() string {
	text, ok := friendlyTexts[e.Err]
	if !ok && e.Err != nil {
		text = e.Err.Error()
	}

	msg := "ERROR: " + text
	if e.Token != "" || e.Err == ErrUndefinedVariable || e.Err == ErrUnresolvedLabel {
		msg += fmt.Sprintf(" '%s'", e.Token)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}
