// Package errs defines the error taxonomy shared by the board engine,
// the Cin7 client and the cache controller.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match on these with errors.Is; the concrete
// wrappers below carry the detail.
var (
	// ErrMalformedRecord marks a single unusable source record. The record
	// is skipped and counted, never aborting the batch.
	ErrMalformedRecord = errors.New("malformed record")

	// Upstream fetch failures. The cache controller treats them all the
	// same way (fail-open), the distinction is for logs and operators.
	ErrSourceUnavailable = errors.New("data source unavailable")
	ErrAuthFailure       = errors.New("authentication failed")
	ErrTimeout           = errors.New("request timed out")

	// ErrConfiguration is fatal at startup.
	ErrConfiguration = errors.New("configuration error")
)

// AppError attaches a short machine-readable code to an underlying cause.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// Malformed builds a per-record error for the normalizer.
func Malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, reason)
}

// Config builds a startup configuration error.
func Config(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// IsFetchFailure reports whether err belongs to the upstream failure
// taxonomy, i.e. the cache should fail open on it.
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrSourceUnavailable) ||
		errors.Is(err, ErrAuthFailure) ||
		errors.Is(err, ErrTimeout)
}
