package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed reports bytes that are not a well-formed value.
	ErrMalformed = errors.New("codec: malformed input")
	// ErrMissingField reports a required tag that never appeared.
	ErrMissingField = errors.New("codec: missing field")
	// ErrInvalidField reports a tag whose value has the wrong shape.
	ErrInvalidField = errors.New("codec: invalid field")
)

// FieldError locates a field-level decode failure.
type FieldError struct {
	Type   string // schema name, e.g. "CipherMessage"
	Tag    uint64
	Reason string
	Err    error // ErrMissingField or ErrInvalidField
}

func (e *FieldError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %s field %d", e.Err, e.Type, e.Tag)
	}
	return fmt.Sprintf("%v: %s field %d: %s", e.Err, e.Type, e.Tag, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

func missing(typ string, tag uint64) error {
	return &FieldError{Type: typ, Tag: tag, Err: ErrMissingField}
}

func invalid(typ string, tag uint64, format string, args ...any) error {
	return &FieldError{Type: typ, Tag: tag, Reason: fmt.Sprintf(format, args...), Err: ErrInvalidField}
}

func malformed(typ string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, typ, err)
}

var (
	errEmpty  = errors.New("empty input")
	errNotMap = errors.New("top-level item is not a map")
)
