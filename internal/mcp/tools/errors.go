package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/usestring/restiming-mcp/internal/loader"
	"github.com/usestring/restiming-mcp/pkg/client"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeCollectorError = "COLLECTOR_ERROR"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeTimeout        = "TIMEOUT"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapCollectorError converts a client.APIError or other error to a coded error.
func WrapCollectorError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		code := ErrCodeCollectorError
		if apiErr.StatusCode == 404 {
			code = ErrCodeNotFound
		}
		coded = &CodedError{Code: code, Message: apiErr.Message, Cause: err}
	case isTimeout(err):
		coded = &CodedError{Code: ErrCodeTimeout, Message: "request timed out", Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeCollectorError, Message: err.Error(), Cause: err}
	}

	slog.Warn("collector error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// WrapLoadError converts a loader error to a coded error. Invalid documents
// and unreadable files are input errors; the rest are collector failures.
func WrapLoadError(err error) error {
	if err == nil {
		return nil
	}

	var verr *loader.ValidationError
	switch {
	case errors.As(err, &verr):
		return &CodedError{Code: ErrCodeInvalidInput, Message: "snapshot failed validation", Cause: err}
	case errors.Is(err, loader.ErrInvalidSnapshot), errors.Is(err, loader.ErrUnknownSource):
		return &CodedError{Code: ErrCodeInvalidInput, Message: "cannot load snapshot", Cause: err}
	case errors.Is(err, os.ErrNotExist):
		return &CodedError{Code: ErrCodeNotFound, Message: "snapshot file not found", Cause: err}
	}
	return WrapCollectorError(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
