package apiclient

import (
	"context"
	"errors"
	"fmt"
)

// CodeInsufficientCredits is the error code the API returns when a charge cannot be covered.
const CodeInsufficientCredits = "INSUFFICIENT_CREDITS"

// ErrTokenExpired is returned before any request is sent when the configured
// bearer token carries an expiry in the past.
var ErrTokenExpired = errors.New("api token has expired")

// Error represents a transport-level failure talking to the API: network
// errors, timeouts, non-2xx statuses and malformed bodies.
type Error struct {
	Op         string
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("api error for %s %s: %s: %v", e.Op, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("api error for %s %s: %s", e.Op, e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Timeout reports whether the failure was caused by a deadline.
func (e *Error) Timeout() bool {
	return errors.Is(e.Cause, context.DeadlineExceeded)
}

// InsufficientCreditsError is returned when the API refuses an operation
// because the credit balance cannot cover it.
type InsufficientCreditsError struct {
	Op               string
	Message          string
	CreditsRemaining *int
}

func (e *InsufficientCreditsError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("insufficient credits for %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("insufficient credits for %s", e.Op)
}

// IsInsufficientCredits reports whether err is or wraps an InsufficientCreditsError.
func IsInsufficientCredits(err error) bool {
	var target *InsufficientCreditsError
	return errors.As(err, &target)
}

// errorBody is the JSON error envelope the API uses for non-2xx responses.
type errorBody struct {
	Error            string `json:"error"`
	Message          string `json:"message"`
	Code             string `json:"code"`
	CreditsRemaining *int   `json:"creditsRemaining"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}
