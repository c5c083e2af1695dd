package apperror

import (
	"errors"
	"net/http"
)

// Kind groups errors by how a caller should react to them.
type Kind string

const (
	KindInternal            Kind = "internal"
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindInvalidState        Kind = "invalid_state"
	KindNotEligible         Kind = "not_eligible"
	KindResourceUnavailable Kind = "resource_unavailable"
	KindStorage             Kind = "storage"
)

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Kind    Kind   // Error category, independent of transport
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
// The kind is derived from the status code.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
	}
}

// NewKind creates a new AppError of an explicit kind.
func NewKind(kind Kind, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
// When err is itself an AppError its kind is inherited, so a specific
// sentinel can refine a broader one and still match it with errors.Is.
func Wrap(err error, code int, message string) *AppError {
	kind := kindForCode(code)
	var inner *AppError
	if errors.As(err, &inner) {
		kind = inner.Kind
	}
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Storage wraps a driver or I/O failure. Storage errors are always safe to retry.
func Storage(err error) *AppError {
	return &AppError{
		Code:    http.StatusServiceUnavailable,
		Kind:    KindStorage,
		Message: "storage unavailable",
		Err:     err,
	}
}

// KindOf returns the kind of the first AppError in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func kindForCode(code int) Kind {
	switch code {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindInvalidState
	case http.StatusForbidden:
		return KindNotEligible
	case http.StatusServiceUnavailable:
		return KindStorage
	default:
		return KindInternal
	}
}
