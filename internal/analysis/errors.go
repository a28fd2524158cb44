package analysis

import (
	"fmt"

	"artwork-catalog/internal/infra/llm"
)

type ErrorKind = llm.ErrorKind

const (
	KindRateLimited = llm.KindRateLimited
	KindAuthFailed  = llm.KindAuthFailed
	KindTimeout     = llm.KindTimeout
	KindParse       = llm.KindParse
	KindUnknown     = llm.KindUnknown
)

// Error is returned by every Analyzer operation that could not produce a result.
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis failed (%s): %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("analysis failed (%s): %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the same call may succeed if repeated later.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindTimeout
}

func wrap(reason string, err error) *Error {
	return &Error{Kind: llm.KindOf(err), Reason: reason, Err: err}
}
