package gateway

import (
	"errors"
	"fmt"
)

// Code classifies a rejected gateway call.
type Code string

const (
	CodeUnauthorized Code = "unauthorized"
	CodeInvalid      Code = "invalid"
	CodeNotFound     Code = "not_found"
	CodeUnavailable  Code = "unavailable"
	CodeInternal     Code = "internal"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid request")
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("gateway unavailable")

	// ErrEmptyResult: the call succeeded but carried no usable payload.
	ErrEmptyResult = errors.New("empty result")
)

// Error is returned when the remote side rejects a call.
type Error struct {
	Op      string
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) and friends match on Code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == CodeUnauthorized
	case ErrInvalid:
		return e.Code == CodeInvalid
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrUnavailable:
		return e.Code == CodeUnavailable
	}
	return false
}

// Message returns the gateway-supplied message carried by err, or def when
// err is not a gateway rejection or carries no message.
func Message(err error, def string) string {
	var ge *Error
	if errors.As(err, &ge) && ge.Message != "" {
		return ge.Message
	}
	return def
}
