package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolViolation matches every error caused by a malformed response.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrIOFailure matches every error caused by the underlying stream.
	ErrIOFailure = errors.New("i/o failure")
)

// ViolationError reports a structural element whose value differs from the
// only value this client accepts. For array headers Got is the observed
// length, or -1 when the element was nil.
type ViolationError struct {
	Field string
	Want  int64
	Got   int64
}

func (e *ViolationError) Error() string {
	if e.Got < 0 {
		return fmt.Sprintf("unexpected %s: want %d, got nil", e.Field, e.Want)
	}
	return fmt.Sprintf("unexpected %s: want %d, got %d", e.Field, e.Want, e.Got)
}

func (e *ViolationError) Is(target error) bool {
	return target == ErrProtocolViolation
}

// TypeError reports an element encoded with a msgpack type that is not
// allowed in its slot.
type TypeError struct {
	Field string
	Code  byte
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("unexpected %s: msgpack code 0x%02x", e.Field, e.Code)
}

func (e *TypeError) Is(target error) bool {
	return target == ErrProtocolViolation
}

// IOError wraps a failed read or write on the stream, including the peer
// closing it in the middle of a message.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIOFailure
}

func readErr(err error) error {
	return &IOError{Op: "read", Err: err}
}
