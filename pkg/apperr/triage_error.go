package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Pipeline errors
	CodeExtractFailed  = "EXTRACT_FAILED"
	CodeClassifyFailed = "CLASSIFY_FAILED"
	CodeWorkflowFailed = "WORKFLOW_FAILED"
	CodeReplyFailed    = "REPLY_FAILED"
	CodeSendFailed     = "SEND_FAILED"

	// External errors
	CodeTransportError = "TRANSPORT_ERROR"
	CodeDatabaseError  = "DATABASE_ERROR"
	CodeExternalError  = "EXTERNAL_ERROR"

	// API errors
	CodeUnauthorized = "UNAUTHORIZED"
	CodeBadRequest   = "BAD_REQUEST"
	CodeNotFound     = "NOT_FOUND"

	// Internal errors
	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
	CodeTimeout       = "TIMEOUT"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// HTTPStatus returns the HTTP status code
func (e *AppError) HTTPStatus() int {
	return e.Status
}

// Constructor functions
func New(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Pipeline errors

func ExtractFailed(err error) *AppError {
	return Wrap(err, CodeExtractFailed, "could not extract message content", http.StatusUnprocessableEntity)
}

func ClassifyFailed(err error) *AppError {
	return Wrap(err, CodeClassifyFailed, "classification model call failed", http.StatusBadGateway)
}

func WorkflowFailed(err error) *AppError {
	return Wrap(err, CodeWorkflowFailed, "ticket workflow failed", http.StatusInternalServerError)
}

func ReplyFailed(err error) *AppError {
	return Wrap(err, CodeReplyFailed, "reply generation failed", http.StatusBadGateway)
}

func SendFailed(err error) *AppError {
	return Wrap(err, CodeSendFailed, "outbound mail send failed", http.StatusBadGateway)
}

// External errors

func TransportError(err error) *AppError {
	return Wrap(err, CodeTransportError, "mail transport error", http.StatusBadGateway)
}

func DatabaseError(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "database error", http.StatusInternalServerError)
}

func ExternalError(service string, err error) *AppError {
	return &AppError{
		Code:    CodeExternalError,
		Message: fmt.Sprintf("external service error: %s", service),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"service": service},
		Err:     err,
	}
}

// API errors

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message, http.StatusBadRequest)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// Internal errors

func Internal(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return New(CodeInternalError, message, http.StatusInternalServerError)
}

func Timeout(operation string) *AppError {
	return New(CodeTimeout, fmt.Sprintf("operation timed out: %s", operation), http.StatusGatewayTimeout)
}

// Helper functions
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternalError, "internal server error", http.StatusInternalServerError)
}

func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
