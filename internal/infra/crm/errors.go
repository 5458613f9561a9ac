package crm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured is returned by every operation when the client is missing
// its base URL or token. No network call is made.
var ErrNotConfigured = errors.New("crm client not configured")

// ErrorKind classifies a failed CRM call.
type ErrorKind string

const (
	KindTransport   ErrorKind = "transport"
	KindRateLimited ErrorKind = "rate_limited"
	KindServer      ErrorKind = "server_error"
	KindAuth        ErrorKind = "auth_error"
	KindNotFound    ErrorKind = "not_found"
	KindValidation  ErrorKind = "validation_error"
)

// Error is the classified result of a failed CRM call. Only transport,
// rate-limited and server errors are retryable; the retry engine consults
// StatusCode and RetryAfter to decide.
type Error struct {
	Kind    ErrorKind
	Status  int             // 0 for transport failures
	Payload json.RawMessage // response body for validation errors
	Hint    time.Duration   // authoritative wait from Retry-After, if any
	cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindTransport && e.cause != nil:
		return fmt.Sprintf("crm: %s: %v", e.Kind, e.cause)
	case len(e.Payload) > 0:
		return fmt.Sprintf("crm: %s (status %d): %s", e.Kind, e.Status, e.Payload)
	default:
		return fmt.Sprintf("crm: %s (status %d)", e.Kind, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.cause
}

// StatusCode returns the HTTP status of the failure, 0 if the request never
// completed at the HTTP layer.
func (e *Error) StatusCode() int {
	return e.Status
}

// RetryAfter returns the server-provided wait hint, if the response carried one.
func (e *Error) RetryAfter() (time.Duration, bool) {
	return e.Hint, e.Hint > 0
}

// transportError wraps a failure that never produced an HTTP response.
func transportError(cause error) *Error {
	return &Error{Kind: KindTransport, cause: cause}
}

// classifyStatus maps an HTTP status to a classified error.
func classifyStatus(status int, body []byte, retryAfter time.Duration) *Error {
	switch {
	case status == 401 || status == 403:
		return &Error{Kind: KindAuth, Status: status}
	case status == 404:
		return &Error{Kind: KindNotFound, Status: status}
	case status == 400 || status == 422:
		return &Error{Kind: KindValidation, Status: status, Payload: body}
	case status == 429:
		return &Error{Kind: KindRateLimited, Status: status, Hint: retryAfter}
	case status >= 500:
		return &Error{Kind: KindServer, Status: status}
	default:
		return &Error{Kind: KindValidation, Status: status, Payload: body}
	}
}

// IsFatal reports whether err is a classified error the orchestrator treats as
// non-retryable and best-effort steps downgrade to a nil id.
func IsFatal(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Kind {
	case KindAuth, KindNotFound, KindValidation:
		return true
	default:
		return false
	}
}
