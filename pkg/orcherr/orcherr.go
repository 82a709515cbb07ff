// Package orcherr defines the error taxonomy shared by the throttle,
// dispatcher, and notification components: a closed set of categories, each
// carrying whether the operation that produced it is safe to retry.
package orcherr

import (
	"errors"
	"fmt"
	"time"
)

// Category is one of the fixed error categories an outbound operation can fail with.
type Category string

const (
	CategoryNetwork        Category = "network"
	CategoryTimeout        Category = "timeout"
	CategoryRateLimit      Category = "rate_limit"
	CategoryServer         Category = "server"
	CategoryAuthentication Category = "authentication"
	CategoryConfiguration  Category = "configuration"
	CategoryValidation     Category = "validation"
	CategoryDecryption     Category = "decryption"
	CategoryUnknown        Category = "unknown"
)

var retryableByCategory = map[Category]bool{
	CategoryNetwork:        true,
	CategoryTimeout:        true,
	CategoryRateLimit:      true,
	CategoryServer:         true,
	CategoryAuthentication: false,
	CategoryConfiguration:  false,
	CategoryValidation:     false,
	CategoryDecryption:     false,
	CategoryUnknown:        false,
}

// Error is the sum type every known failure in the orchestrator is modeled as.
// Only truly unexpected errors are left unwrapped and allowed to propagate as
// plain Go errors.
type Error struct {
	Category   Category
	Message    string
	RetryAfter time.Duration // set only for CategoryRateLimit when the server told us how long to wait
	Status     int           // HTTP status code, when applicable
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable reports whether the operation that produced this error is safe to retry.
func (e *Error) Retryable() bool { return retryableByCategory[e.Category] }

func newErr(cat Category, msg string, cause error) *Error {
	return &Error{Category: cat, Message: msg, Cause: cause}
}

func NewNetworkError(msg string, cause error) *Error { return newErr(CategoryNetwork, msg, cause) }
func NewTimeoutError(msg string, cause error) *Error { return newErr(CategoryTimeout, msg, cause) }

// NewRateLimitError builds a rate-limit error. retryAfter is zero when the
// server gave no Retry-After hint.
func NewRateLimitError(msg string, retryAfter time.Duration) *Error {
	return &Error{Category: CategoryRateLimit, Message: msg, RetryAfter: retryAfter}
}

func NewServerError(msg string, status int) *Error {
	return &Error{Category: CategoryServer, Message: msg, Status: status}
}

func NewAuthenticationError(msg string) *Error {
	return newErr(CategoryAuthentication, msg, nil)
}

func NewConfigurationError(msg string) *Error {
	return newErr(CategoryConfiguration, msg, nil)
}

func NewValidationError(msg string) *Error {
	return newErr(CategoryValidation, msg, nil)
}

func NewDecryptionError(msg string) *Error {
	return newErr(CategoryDecryption, msg, nil)
}

func NewUnknownError(msg string, cause error) *Error { return newErr(CategoryUnknown, msg, cause) }

// As extracts an *Error from err, if any wraps one.
func As(err error) (*Error, bool) {
	var oe *Error
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// Retryable reports whether err is an *Error marked retryable. A plain,
// non-orchestrator error is treated as non-retryable by default.
func Retryable(err error) bool {
	oe, ok := As(err)
	return ok && oe.Retryable()
}
