// Package errors defines the coded errors shared by the transformation,
// the view layer, the CLI and the HTTP server.
//
// Every failure a caller can act on carries a [Code]. The code's prefix
// places it in a category (INVALID_, NOT_FOUND) which the server maps to
// an HTTP status via [HTTPStatus]:
//
//	err := errors.New(errors.ErrCodeInvalidViewLevel, "view level %d out of range", level)
//	if errors.Is(err, errors.ErrCodeInvalidViewLevel) {
//	    // reject the request
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a machine-readable error code.
type Code string

const (
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidAnalysis  Code = "INVALID_ANALYSIS"
	ErrCodeInvalidViewLevel Code = "INVALID_VIEW_LEVEL"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidPattern   Code = "INVALID_PATTERN"
	ErrCodeInvalidPath      Code = "INVALID_PATH"

	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeNodeNotFound    Code = "NODE_NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"

	// ErrCodeAborted marks a transformation stopped by its caller.
	ErrCodeAborted Code = "ABORTED"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Invalid reports whether c describes bad caller input.
func (c Code) Invalid() bool { return strings.HasPrefix(string(c), "INVALID_") }

// Missing reports whether c describes an unknown resource.
func (c Code) Missing() bool {
	return c == ErrCodeNotFound || strings.HasSuffix(string(c), "_NOT_FOUND")
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without code prefix or cause.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// StatusClientClosedRequest is returned for aborted runs.
const StatusClientClosedRequest = 499

// HTTPStatus maps err's code to the status the API server responds with.
func HTTPStatus(err error) int {
	switch code := GetCode(err); {
	case code.Invalid():
		return http.StatusBadRequest
	case code.Missing():
		return http.StatusNotFound
	case code == ErrCodeAborted:
		return StatusClientClosedRequest
	case code == ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
