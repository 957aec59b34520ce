package expr

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax         = errors.New("syntax error")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("integer overflow")
)

// EvalError describes why an expression could not be parsed or evaluated.
type EvalError struct {
	Err error  // one of the sentinels above
	Pos int    // byte offset for syntax errors, -1 otherwise
	Msg string // detail
}

func (e *EvalError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%v at position %d: %s", e.Err, e.Pos+1, e.Msg)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Msg)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

func syntaxError(pos int, format string, args ...interface{}) *EvalError {
	return &EvalError{Err: ErrSyntax, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func runtimeError(err error, format string, args ...interface{}) *EvalError {
	return &EvalError{Err: err, Pos: -1, Msg: fmt.Sprintf(format, args...)}
}
