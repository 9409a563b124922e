package expr

import (
	"errors"
	"fmt"
)

var (
	ErrSyntax = errors.New("expression syntax error")
	ErrEval   = errors.New("expression evaluation error")
)

// SyntaxError reports malformed source text with the byte offset of the
// offending token.
type SyntaxError struct {
	Source string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d in %q", e.Msg, e.Offset, e.Source)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// EvalError reports a runtime type error, such as arithmetic on a string.
type EvalError struct {
	Source string
	Msg    string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s in %q", e.Msg, e.Source)
}

func (e *EvalError) Unwrap() error { return ErrEval }
