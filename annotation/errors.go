package annotation

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Read when the handle is absent or no fragment
// with the requested identity exists.
var ErrNotFound = errors.New("annotation not found")

// ParseError reports malformed XML in stored annotation content or in raw
// input supplied by the caller.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed annotation content: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SerializeError reports a typed value that cannot be mapped to a fragment.
type SerializeError struct {
	Tag string
	Err error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("unable to serialize annotation %q: %v", e.Tag, e.Err)
}

func (e *SerializeError) Unwrap() error { return e.Err }

// DeserializeError reports a located fragment that does not match the shape
// expected by the payload. Err may aggregate several per-field failures.
type DeserializeError struct {
	Tag string
	Err error
}

func (e *DeserializeError) Error() string {
	return fmt.Sprintf("unable to deserialize annotation %q: %v", e.Tag, e.Err)
}

func (e *DeserializeError) Unwrap() error { return e.Err }

// WriteError reports that the host document model rejected the write.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("unable to store annotation: %v", e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
