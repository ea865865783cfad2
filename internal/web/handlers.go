package web

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fssonca/ezy-collect-challenge/internal/core"
)

func (s *Server) handleCreatePayment(c *gin.Context) {
	idempotencyKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if idempotencyKey == "" {
		c.JSON(http.StatusBadRequest, simpleError(CodeMissingIdempotencyKey, "Idempotency-Key header is required"))
		return
	}

	var payload createPaymentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, simpleError(CodeValidationError, "Malformed JSON request"))
		return
	}

	req, fieldErrors := validateCreatePayment(payload)
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:        CodeValidationError,
			Message:     "Request validation failed",
			FieldErrors: fieldErrors,
		})
		return
	}

	result, err := s.payments.CreatePayment(c.Request.Context(), idempotencyKey, req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrIdempotencyConflict):
			c.JSON(http.StatusConflict, simpleError(CodeIdempotencyKeyReused, "Idempotency-Key was already used with a different request payload"))
		case errors.Is(err, core.ErrRequestInFlight):
			c.Header("Retry-After", "1")
			c.JSON(http.StatusConflict, simpleError(CodeRequestInProgress, "A request with this Idempotency-Key is still being processed"))
		default:
			// Infrastructure failure: log the cause, return a generic body
			log.Printf("Error: create payment failed: %v", err)
			c.JSON(http.StatusInternalServerError, simpleError(CodeInternalError, "Unexpected server error"))
		}
		return
	}

	// Replays must be byte-identical to the original response, so write the
	// cached body as-is instead of re-marshaling.
	c.Data(result.HTTPStatus, "application/json; charset=utf-8", result.Body)
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.health.Ping(c.Request.Context()); err != nil {
		log.Printf("Error: health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": 1})
}
