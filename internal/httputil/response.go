// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/orders/internal/errors"
	ordersDomain "github.com/allisson/orders/internal/orders/domain"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// MakeJSONResponse writes a JSON response with the given status code.
func MakeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Encoding a map or struct of plain values cannot fail; ignore the error.
	_ = json.NewEncoder(w).Encode(body)
}

// HandleErrorGin maps domain errors to HTTP status codes and returns a JSON
// response using Gin. Unknown system faults surface as the generic
// INVENTORY_SERVICE_UNAVAILABLE code with full detail logged server-side.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	code := ordersDomain.CodeOf(err)
	statusCode := statusFor(code)

	errorResponse := ErrorResponse{
		Error:   string(code),
		Message: messageFor(code),
	}

	// Insufficient inventory carries the per-item shortfall list.
	var insufficientErr *ordersDomain.InsufficientInventoryError
	if apperrors.As(err, &insufficientErr) {
		errorResponse.Details = insufficientErr.Details
	}

	if logger != nil {
		logFn := logger.Warn
		if statusCode >= http.StatusInternalServerError {
			logFn = logger.Error
		}
		logFn("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", string(code)),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// HandleValidationErrorGin writes a 400 Bad Request response for malformed
// or invalid request payloads using Gin.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   string(ordersDomain.CodeValidationError),
		Message: err.Error(),
	})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code ordersDomain.Code) int {
	switch code {
	case ordersDomain.CodeValidationError:
		return http.StatusBadRequest
	case ordersDomain.CodeOrderNotFound:
		return http.StatusNotFound
	case ordersDomain.CodeInsufficientInventory,
		ordersDomain.CodeDuplicateEvent,
		ordersDomain.CodeInvalidStatusTransition:
		return http.StatusConflict
	case ordersDomain.CodeInventoryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the client-facing message for an error code.
func messageFor(code ordersDomain.Code) string {
	switch code {
	case ordersDomain.CodeValidationError:
		return "The request payload is invalid"
	case ordersDomain.CodeOrderNotFound:
		return "The requested order was not found"
	case ordersDomain.CodeInsufficientInventory:
		return "One or more items cannot be satisfied by current inventory"
	case ordersDomain.CodeDuplicateEvent:
		return "The event was already processed"
	case ordersDomain.CodeInvalidStatusTransition:
		return "The requested status transition is not allowed"
	case ordersDomain.CodeInventoryUnavailable:
		return "The service cannot process the request right now"
	default:
		return "An internal error occurred"
	}
}
