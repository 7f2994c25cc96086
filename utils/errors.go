package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"enterprise-docs-qa/services"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithServiceError maps pipeline errors onto HTTP responses: invalid
// queries become 400s, an unreachable document source a 503, everything else
// a 500 with the error message.
func RespondWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidQuery):
		RespondWithError(c, http.StatusBadRequest, "invalid_query", err.Error(), nil)
	case errors.Is(err, services.ErrSourceUnavailable):
		RespondWithError(c, http.StatusServiceUnavailable, "source_unavailable", err.Error(), nil)
	default:
		RespondWithInternalError(c, err.Error(), nil)
	}
}
