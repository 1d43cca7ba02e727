package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-vocab-highlighter/internal/errors"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeUnitNotFound     ErrorCode = "UNIT_NOT_FOUND"
	ErrorCodePassNotFound     ErrorCode = "PASS_NOT_FOUND"
	ErrorCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrorCodeScanInProgress   ErrorCode = "SCAN_IN_PROGRESS"
	ErrorCodeFeatureDisabled  ErrorCode = "HIGHLIGHTING_DISABLED"

	// Server Error Codes (5xx)
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
	ErrorCodeScanFailed        ErrorCode = "SCAN_FAILED"
	ErrorCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	ErrorCodeStatusUnavailable ErrorCode = "STATUS_SERVICE_UNAVAILABLE"
	ErrorCodeNotSupported      ErrorCode = "NOT_SUPPORTED"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	errorResponse := APIErrorResponse(code, message, details...)

	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			errorResponse.RequestID = id
		}
	}

	c.JSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with structured details
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendPassNotFoundError sends a standardized pass not found error
func SendPassNotFoundError(c *gin.Context, passID string) {
	SendError(c, http.StatusNotFound, ErrorCodePassNotFound,
		"Scan pass '"+passID+"' not found")
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

// SendEngineError maps an engine error onto a status code and error code.
func SendEngineError(c *gin.Context, operation string, err error) {
	var validation *internalErrors.ValidationError
	switch {
	case errors.As(err, &validation):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, validation.Error(),
			ErrorDetail{Field: validation.Field, Message: validation.Message, Code: "VALIDATION_ERROR"})
	case errors.Is(err, internalErrors.ErrInvalidInput):
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
	case errors.Is(err, internalErrors.ErrUnitNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeUnitNotFound, err.Error())
	case errors.Is(err, internalErrors.ErrPassNotFound):
		SendError(c, http.StatusNotFound, ErrorCodePassNotFound, err.Error())
	case errors.Is(err, internalErrors.ErrScanInProgress):
		SendError(c, http.StatusConflict, ErrorCodeScanInProgress,
			"A scan pass is already running; retry once it finishes")
	case errors.Is(err, internalErrors.ErrFeatureDisabled):
		SendError(c, http.StatusConflict, ErrorCodeFeatureDisabled,
			"Highlighting is disabled for this site")
	case errors.Is(err, internalErrors.ErrPersistence):
		SendError(c, http.StatusInternalServerError, ErrorCodePersistenceFailed,
			"Failed to persist "+operation+": "+err.Error())
	case errors.Is(err, internalErrors.ErrStatusQuery):
		SendError(c, http.StatusBadGateway, ErrorCodeStatusUnavailable,
			"Status service failed during "+operation+": "+err.Error())
	case errors.Is(err, internalErrors.ErrScanAborted):
		SendError(c, http.StatusInternalServerError, ErrorCodeScanFailed,
			"Scan aborted during "+operation+": "+err.Error())
	default:
		SendInternalError(c, operation, err)
	}
}
