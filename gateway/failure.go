package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Fixed user facing messages. Status specific ones replace whatever the backend said.
const (
	MsgNoConnection  = "no connection to server"
	MsgUnauthorized  = "Unauthorized"
	MsgForbidden     = "Forbidden"
	MsgServerError   = "Server error"
	MsgRequestFailed = "Request failed"
)

// Failure is the normalised record of a failed call. Status 0 means no response was received.
type Failure struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"` // raw response body, or the transport error text

	Method    string `json:"-"`
	Path      string `json:"-"`
	RequestID string `json:"-"`

	// Observed is set once the failure was handed to the failure observer. Cancelled calls
	// and expected statuses are returned unobserved.
	Observed bool `json:"-"`

	cause error
}

var _ error = (*Failure)(nil)

func (f *Failure) Error() string {
	if f.Status == 0 {
		return fmt.Sprintf("%s %s: %s", f.Method, f.Path, f.Message)
	}
	return fmt.Sprintf("%s %s: %s (status %d)", f.Method, f.Path, f.Message, f.Status)
}

// Unwrap exposes the transport or encoding error behind a status 0 failure.
func (f *Failure) Unwrap() error {
	return f.cause
}

// IsTransport reports whether no response reached the client.
func (f *Failure) IsTransport() bool {
	return f.Status == 0
}

// IsServerError reports a 5xx failure.
func (f *Failure) IsServerError() bool {
	return f.Status >= 500 && f.Status <= 599
}

// AsFailure extracts the *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// StatusOf returns the failure status carried by err, or -1 when err is not a gateway failure.
func StatusOf(err error) int {
	if f, ok := AsFailure(err); ok {
		return f.Status
	}
	return -1
}

// IsStatus reports whether err is a gateway failure with the given status.
func IsStatus(err error, status int) bool {
	return StatusOf(err) == status
}

func transportFailure(cause error) *Failure {
	return &Failure{
		Status:  0,
		Message: MsgNoConnection,
		Details: cause.Error(),
		cause:   cause,
	}
}

func requestFailure(cause error) *Failure {
	return &Failure{
		Status:  0,
		Message: MsgRequestFailed,
		Details: cause.Error(),
		cause:   cause,
	}
}

func statusFailure(status int, raw string) *Failure {
	return &Failure{
		Status:  status,
		Message: failureMessage(status, raw),
		Details: raw,
	}
}

// failureMessage picks the record message. Priority: fixed status message, JSON "message"
// field, raw body, reason phrase, generic fallback.
func failureMessage(status int, raw string) string {
	switch {
	case status == http.StatusUnauthorized:
		return MsgUnauthorized
	case status == http.StatusForbidden:
		return MsgForbidden
	case status >= 500 && status <= 599:
		return MsgServerError
	}

	if msg := messageField(raw); msg != "" {
		return msg
	}
	if raw != "" {
		return raw
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return MsgRequestFailed
}

func messageField(raw string) string {
	if raw == "" {
		return ""
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return ""
	}
	// objects and arrays have no readable form; the raw body is used instead
	switch v := body["message"].(type) {
	case string:
		return v
	case bool:
		if !v {
			return ""
		}
		return "true"
	case float64:
		if v == 0 {
			return ""
		}
		return fmt.Sprint(v)
	default:
		return ""
	}
}
