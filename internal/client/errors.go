// ABOUTME: Error taxonomy for API calls
// ABOUTME: Separates auth, backend and network failures and renders user-facing text

package client

import (
	"errors"
	"fmt"
)

// AuthError is returned for 401 and 403 responses
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("not authorized: %s", e.Message)
	}
	return fmt.Sprintf("not authorized (status %d)", e.Status)
}

func (e *AuthError) UserMessage() string {
	return e.Message
}

// BackendError is any other non-2xx response
type BackendError struct {
	Status  int
	Message string
	Details string
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error: %s", e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

func (e *BackendError) UserMessage() string {
	return e.Message
}

// NetworkError covers transport failures, timeouts and cancellation
type NetworkError struct {
	Reason string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// messager is implemented by errors that carry text fit for display
type messager interface {
	UserMessage() string
}

// Message returns the display text for err: the message supplied by the
// backend or validator when there is one, otherwise fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var m messager
	if errors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// IsAuth reports whether err is an authorization failure
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsNetwork reports whether err is a transport-level failure
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
