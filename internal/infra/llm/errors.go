package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind classifies a failed model call.
type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited"
	KindAuthFailed  ErrorKind = "auth_failed"
	KindTimeout     ErrorKind = "timeout"
	KindParse       ErrorKind = "parse"
	KindUnknown     ErrorKind = "unknown"
)

type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify wraps err with the kind derived from its status code.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	return &Error{Kind: KindOf(err), Err: err}
}

// KindOf inspects HTTP and gRPC status carried by err.
func KindOf(err error) ErrorKind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var ae *apierror.APIError
	if errors.As(err, &ae) {
		if code := ae.HTTPCode(); code > 0 {
			return kindForHTTP(code)
		}
		if st := ae.GRPCStatus(); st != nil {
			return kindForGRPC(st.Code())
		}
	}

	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return kindForHTTP(ge.Code)
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return kindForGRPC(st.Code())
	}
	return KindUnknown
}

func kindForHTTP(code int) ErrorKind {
	switch code {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthFailed
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	}
	return KindUnknown
}

func kindForGRPC(code codes.Code) ErrorKind {
	switch code {
	case codes.ResourceExhausted:
		return KindRateLimited
	case codes.Unauthenticated, codes.PermissionDenied:
		return KindAuthFailed
	case codes.DeadlineExceeded:
		return KindTimeout
	}
	return KindUnknown
}
