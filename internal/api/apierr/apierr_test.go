package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"artwork-catalog/internal/analysis"
	"artwork-catalog/internal/infra/queue"
	"artwork-catalog/internal/infra/store"
	"artwork-catalog/internal/media"
	"artwork-catalog/internal/pipeline"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&media.InvalidInputError{Reason: "bad"}, http.StatusBadRequest},
		{&media.PayloadTooLargeError{Size: 2, Limit: 1}, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound},
		{pipeline.ErrAnalysisInProgress, http.StatusConflict},
		{fmt.Errorf("enqueue: %w", queue.ErrQueueFull), http.StatusServiceUnavailable},
		{&analysis.Error{Kind: analysis.KindRateLimited}, http.StatusBadGateway},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		got, msg := Status(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
		assert.NotEmpty(t, msg)
	}

	_, msg := Status(&analysis.Error{Kind: analysis.KindRateLimited})
	assert.Equal(t, pipeline.MsgRateLimited, msg)
}
