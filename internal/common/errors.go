package common

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors.
// Kind is one of the sentinel errors below and is matched by errors.Is.
type AppError struct {
	Code    string
	Message string
	Kind    error
	Cause   error
	Raw     string // response body, set for malformed completion responses
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")

	// Extraction error kinds.
	ErrAuth     = errors.New("token acquisition failed")
	ErrAPI      = errors.New("completion call failed")
	ErrDocument = errors.New("document text unavailable")
	ErrFormat   = errors.New("completion content is not structured data")

	// ErrAPI refinements.
	ErrAPIUnreachable = errors.New("completion service unreachable")
	ErrAPIMalformed   = errors.New("completion response malformed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// AuthError reports a failed client-credentials grant.
func AuthError(message string, cause error) *AppError {
	return &AppError{Code: "AUTH_ERROR", Message: message, Kind: ErrAuth, Cause: cause}
}

// APIError reports a failed completion call. detail refines the kind and may be nil.
func APIError(code, message string, detail, cause error) *AppError {
	kind := ErrAPI
	if detail != nil {
		kind = errors.Join(ErrAPI, detail)
	}
	return &AppError{Code: code, Message: message, Kind: kind, Cause: cause}
}

// MalformedResponse reports a completion response that lacks the expected
// choices shape. raw is kept so callers can fall back to it.
func MalformedResponse(message string, raw []byte, cause error) *AppError {
	e := APIError("API_MALFORMED", message, ErrAPIMalformed, cause)
	e.Raw = string(raw)
	return e
}

// MalformedBody returns the response body carried by a malformed-response error.
func MalformedBody(err error) (string, bool) {
	if !errors.Is(err, ErrAPIMalformed) {
		return "", false
	}
	var ae *AppError
	if !errors.As(err, &ae) {
		return "", false
	}
	return ae.Raw, true
}

// DocumentError reports unreadable documents and out-of-range pages.
func DocumentError(message string, cause error) *AppError {
	return &AppError{Code: "DOCUMENT_ERROR", Message: message, Kind: ErrDocument, Cause: cause}
}

// FormatError reports completion content that could not be decoded as JSON.
func FormatError(message string, cause error) *AppError {
	return &AppError{Code: "FORMAT_ERROR", Message: message, Kind: ErrFormat, Cause: cause}
}

// InvalidInput reports caller mistakes.
func InvalidInput(message string) *AppError {
	return &AppError{Code: "INVALID_INPUT", Message: message, Kind: ErrInvalidInput}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// GRPCStatus maps an extraction error onto a gRPC status error.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var code codes.Code
	switch {
	case errors.Is(err, ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, ErrDocument):
		code = codes.InvalidArgument
	case errors.Is(err, ErrAuth), errors.Is(err, ErrUnauthorized):
		code = codes.Unauthenticated
	case errors.Is(err, ErrAPIUnreachable):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}
