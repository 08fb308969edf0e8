package model

import (
	"errors"
	"fmt"
)

// Reason is the machine-readable failure class reported to callers
type Reason string

const (
	// ReasonNetwork marks transport and connectivity faults; callers may retry
	ReasonNetwork Reason = "network"

	// ReasonSystem marks recognized environment faults
	ReasonSystem Reason = "system"

	// ReasonUnknown marks everything else, including programming errors
	ReasonUnknown Reason = "unknown"
)

// String returns the string representation of Reason
func (r Reason) String() string {
	return string(r)
}

// IsRetryable reports whether re-invoking the pipeline may succeed
func (r Reason) IsRetryable() bool {
	return r == ReasonNetwork
}

// Error is a classified pipeline failure
type Error struct {
	Reason  Reason
	Message string
	Err     error
}

// NewError creates a classified error wrapping err
func NewError(reason Reason, message string, err error) *Error {
	return &Error{Reason: reason, Message: message, Err: err}
}

// Errorf creates a classified error with a formatted message and no cause
func Errorf(reason Reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a classified error from err's chain
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ReasonOf returns the reason carried by err, or ReasonUnknown
func ReasonOf(err error) Reason {
	if e, ok := AsError(err); ok {
		return e.Reason
	}
	return ReasonUnknown
}
