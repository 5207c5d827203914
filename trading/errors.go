package trading

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch on it without
// parsing messages. Every public operation either succeeds or returns
// an error whose chain contains a *Error with one of these kinds.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindSymbolUnavailable   Kind = "symbol_unavailable"
	KindEmptyPortfolio      Kind = "empty_portfolio"
	KindInsufficientHistory Kind = "insufficient_history"
	KindNumerical           Kind = "numerical"
	KindExternalProvider    Kind = "external_provider"
)

// Error is a typed failure: a kind plus a human-readable message and
// an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Errf builds a typed error from a format string.
func Errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapErr attaches a kind and context message to an underlying cause.
func WrapErr(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// IsKind reports whether any error in the chain carries the kind.
func IsKind(err error, kind Kind) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first typed error in the chain, or
// an empty Kind for untyped errors.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
