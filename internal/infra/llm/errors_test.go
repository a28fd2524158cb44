package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout},
		{"http 429", &googleapi.Error{Code: http.StatusTooManyRequests}, KindRateLimited},
		{"http 403", &googleapi.Error{Code: http.StatusForbidden}, KindAuthFailed},
		{"http 504", &googleapi.Error{Code: http.StatusGatewayTimeout}, KindTimeout},
		{"http 500", &googleapi.Error{Code: http.StatusInternalServerError}, KindUnknown},
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "quota"), KindRateLimited},
		{"grpc unauthenticated", status.Error(codes.Unauthenticated, "bad key"), KindAuthFailed},
		{"grpc deadline", status.Error(codes.DeadlineExceeded, "slow"), KindTimeout},
		{"plain", errors.New("boom"), KindUnknown},
		{"already classified", &Error{Kind: KindParse, Err: errors.New("x")}, KindParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestClassify_KeepsCause(t *testing.T) {
	cause := &googleapi.Error{Code: http.StatusTooManyRequests}
	err := Classify(cause)

	var le *Error
	assert.ErrorAs(t, err, &le)
	assert.Equal(t, KindRateLimited, le.Kind)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Classify(nil))
}
