package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for TableKeeper operations.
var (
	// ErrScopeSyntax indicates an unparseable scope expression.
	ErrScopeSyntax = errors.New("unrecognized scope expression")

	// ErrColumnNotFound indicates a target or scope-referenced column is
	// absent from the dataset.
	ErrColumnNotFound = errors.New("column not found in dataset")

	// ErrCoercionFailed indicates a value could not be converted to the
	// kind required by a constraint or scope comparison.
	ErrCoercionFailed = errors.New("type coercion failed")

	// ErrFatalInput indicates the rule set or dataset is entirely
	// unreadable or empty. The only error that aborts a run.
	ErrFatalInput = errors.New("rule set or dataset unusable")
)

// ErrorCode classifies a recovered per-rule or per-constraint failure for
// report entries. String values are stable report vocabulary.
type ErrorCode string

const (
	CodeScopeSyntax    ErrorCode = "SCOPE_SYNTAX"
	CodeColumnNotFound ErrorCode = "COLUMN_NOT_FOUND"
	CodeTypeMismatch   ErrorCode = "TYPE_MISMATCH"
	CodeFatalInput     ErrorCode = "FATAL_INPUT"
)

// RuleError is a recovered evaluation failure attached to a report entry.
// It wraps the sentinel that caused it so callers can still errors.Is().
type RuleError struct {
	Code   ErrorCode
	Detail string
	err    error
}

// NewRuleError builds a RuleError wrapping the given sentinel.
func NewRuleError(code ErrorCode, err error, detail string) *RuleError {
	return &RuleError{Code: code, Detail: detail, err: err}
}

func (e *RuleError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Code, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *RuleError) Unwrap() error {
	return e.err
}

// CodeForError maps a sentinel error to its report code.
func CodeForError(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrScopeSyntax):
		return CodeScopeSyntax
	case errors.Is(err, ErrColumnNotFound):
		return CodeColumnNotFound
	case errors.Is(err, ErrCoercionFailed):
		return CodeTypeMismatch
	default:
		return CodeFatalInput
	}
}
