package client

import (
	"errors"
	"fmt"
)

var (
	ErrClosed       = errors.New("connection closed")
	ErrServer       = errors.New("relay error")
	ErrTimeout      = errors.New("timeout")
	ErrDisconnected = errors.New("disconnected from relay")
)

// Error carries the failing operation alongside the cause.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}
