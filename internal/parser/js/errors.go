package js

import (
	"errors"
	"fmt"
)

// Sentinel errors for error type checking
var (
	// ErrSyntax indicates JavaScript source failed to parse
	ErrSyntax = errors.New("javascript syntax error")

	// ErrInvalidExpression indicates a runtime expression is not a single expression
	ErrInvalidExpression = errors.New("invalid runtime expression")
)

// SyntaxError reports the first unparseable location in a JavaScript source
type SyntaxError struct {
	// Line and Column are 1-indexed; zero when the location is unknown
	Line   uint
	Column uint
	Reason string
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("syntax error: %s", e.Reason)
	}
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Reason)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// ExpressionError reports a runtime expression that cannot be inserted into code
type ExpressionError struct {
	Expression string
	Reason     string
	Err        error
}

func (e *ExpressionError) Error() string {
	msg := fmt.Sprintf("invalid runtime expression %q: %s", e.Expression, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + "\nSuggestion: Provide exactly one JavaScript expression, e.g. window.__publicPath"
}

func (e *ExpressionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidExpression}
	}
	return []error{ErrInvalidExpression, e.Err}
}
