package entities

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCity        = ValidationError{Field: "city", Reason: "Please enter a city name"}
	ErrLookupInProgress = errors.New("a lookup is already in progress")
)

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e ValidationError) UserMessage() string {
	return e.Reason
}

// NetworkError covers transport failures, timeouts, non-2xx answers and
// undecodable payloads from a remote provider.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewStatusError builds the error for a non-success HTTP answer.
func NewStatusError(op string, status int, message string) *NetworkError {
	if message == "" {
		return &NetworkError{Op: op, StatusCode: status, Err: fmt.Errorf("API returned status %d", status)}
	}
	return &NetworkError{Op: op, StatusCode: status, Err: fmt.Errorf("API returned status %d: %s", status, message)}
}

// PersistenceError reports an unreadable, undecodable or unwritable history store.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// LocationError wraps a failed IP geolocation lookup.
type LocationError struct {
	Err error
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("geolocation: %v", e.Err)
}

func (e *LocationError) Unwrap() error {
	return e.Err
}

func (e *LocationError) UserMessage() string {
	return "Could not get your location"
}

// UserMessage turns any lookup-path error into the single line shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var um interface{ UserMessage() string }
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return err.Error()
}
