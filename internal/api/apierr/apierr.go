// Package apierr maps domain errors onto HTTP responses.
package apierr

import (
	"errors"
	"net/http"

	"artwork-catalog/internal/analysis"
	"artwork-catalog/internal/infra/queue"
	"artwork-catalog/internal/infra/store"
	"artwork-catalog/internal/media"
	"artwork-catalog/internal/pipeline"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Status returns the HTTP status and client-safe message for err.
func Status(err error) (int, string) {
	var invalid *media.InvalidInputError
	var tooLarge *media.PayloadTooLargeError
	var ae *analysis.Error

	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Error()
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, tooLarge.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Artwork not found"
	case errors.Is(err, pipeline.ErrAnalysisInProgress):
		return http.StatusConflict, err.Error()
	case errors.Is(err, queue.ErrQueueFull), errors.Is(err, queue.ErrQueueClosed):
		return http.StatusServiceUnavailable, pipeline.MsgQueueBusy
	case errors.As(err, &ae):
		return http.StatusBadGateway, pipeline.FailureMessage(ae.Kind)
	}
	return http.StatusInternalServerError, "Internal server error"
}

// Respond writes {"error": msg} for err, logging server-side failures.
func Respond(c *gin.Context, log *zap.Logger, err error) {
	status, msg := Status(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}
