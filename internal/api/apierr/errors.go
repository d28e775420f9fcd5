package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/harutoki/licensegate/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeTokenNotFound    = "TOKEN_NOT_FOUND"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeQuotaExhausted   = "QUOTA_EXHAUSTED"
	CodeVersionMismatch  = "VERSION_MISMATCH"
	CodeTokenInUse       = "TOKEN_IN_USE"
	CodeMissingField     = "MISSING_FIELD"
	CodePlayerNotFound   = "PLAYER_NOT_FOUND"
	CodeMalformedInput   = "MALFORMED_INPUT"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInternalError    = "INTERNAL_ERROR"
)

// Code maps a domain error to its API error code. The /check endpoint uses
// this to report rejections as structured outcomes rather than HTTP errors.
func Code(err error) string {
	switch {
	case errors.Is(err, model.ErrTokenNotFound):
		return CodeTokenNotFound
	case errors.Is(err, model.ErrTokenExpired):
		return CodeTokenExpired
	case errors.Is(err, model.ErrQuotaExhausted):
		return CodeQuotaExhausted
	case errors.Is(err, model.ErrVersionMismatch):
		return CodeVersionMismatch
	case errors.Is(err, model.ErrTokenInUse):
		return CodeTokenInUse
	case errors.Is(err, model.ErrMissingField):
		return CodeMissingField
	case errors.Is(err, model.ErrPlayerNotFound):
		return CodePlayerNotFound
	case errors.Is(err, model.ErrMalformedInput):
		return CodeMalformedInput
	case errors.Is(err, model.ErrCacheNotReady), errors.Is(err, model.ErrStoreUnavailable):
		return CodeStoreUnavailable
	default:
		return CodeInternalError
	}
}

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrTokenNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeTokenNotFound, "Token not found"}}
	case errors.Is(err, model.ErrTokenExpired):
		return &httpError{http.StatusForbidden, APIError{CodeTokenExpired, "Token has expired"}}
	case errors.Is(err, model.ErrQuotaExhausted):
		return &httpError{http.StatusForbidden, APIError{CodeQuotaExhausted, "Token quota exhausted"}}
	case errors.Is(err, model.ErrVersionMismatch):
		return &httpError{http.StatusForbidden, APIError{CodeVersionMismatch, "Client version mismatch"}}
	case errors.Is(err, model.ErrTokenInUse):
		return &httpError{http.StatusConflict, APIError{CodeTokenInUse, "Token is in use by another session"}}
	case errors.Is(err, model.ErrMissingField):
		return &httpError{http.StatusBadRequest, APIError{CodeMissingField, err.Error()}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrMalformedInput):
		return &httpError{http.StatusBadRequest, APIError{CodeMalformedInput, err.Error()}}
	case errors.Is(err, model.ErrCacheNotReady), errors.Is(err, model.ErrStoreUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStoreUnavailable, "Store unavailable, try again shortly"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Admin authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
