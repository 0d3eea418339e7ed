package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/deepakshirkem/spiderly"
	"github.com/deepakshirkem/spiderly/privacy"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error  ErrorDetail `json:"error"`
	Status int         `json:"status"`
	Path   string      `json:"path,omitempty"`
	Method string      `json:"method,omitempty"`
}

// ErrorDetail contains detailed error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParamError reports a missing or malformed request parameter.
type ParamError struct {
	Name  string
	Value string
	Err   error
}

// Error returns the error string.
func (e *ParamError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("missing parameter %s", e.Name)
	}
	return fmt.Sprintf("invalid parameter %s=%q: %v", e.Name, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParamError) Unwrap() error {
	return e.Err
}

// BodyError reports a request body that cannot be decoded.
type BodyError struct {
	Err error
}

// Error returns the error string.
func (e *BodyError) Error() string {
	return "invalid request body: " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *BodyError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status and error code err maps to.
//
//	not found                          -> 404 NOT_FOUND
//	permission denied                  -> 403 FORBIDDEN
//	business rule, filter, bad request -> 400 BAD_REQUEST
//	anything else                      -> 500 INTERNAL_SERVER_ERROR
func Status(err error) (int, string) {
	var (
		perr *ParamError
		berr *BodyError
	)
	switch {
	case spiderly.IsNotFound(err):
		return http.StatusNotFound, "NOT_FOUND"
	case privacy.IsDenied(err):
		return http.StatusForbidden, "FORBIDDEN"
	case spiderly.IsBusinessError(err):
		return http.StatusBadRequest, "BUSINESS_ERROR"
	case errors.Is(err, spiderly.ErrUnsupportedMatchMode), errors.Is(err, spiderly.ErrInvalidFilterValue):
		return http.StatusBadRequest, "INVALID_FILTER"
	case errors.As(err, &perr), errors.As(err, &berr):
		return http.StatusBadRequest, "BAD_REQUEST"
	default:
		return http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
	}
}

// WriteError writes the categorized error response of err. Internal errors
// are logged and their message is not exposed.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		Logger(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		message = "An internal server error occurred"
	}
	writeJSONError(w, status, ErrorResponse{
		Error:  ErrorDetail{Code: code, Message: message},
		Status: status,
		Path:   r.URL.Path,
		Method: r.Method,
	})
}

func writeJSONError(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
