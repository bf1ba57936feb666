package cell

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCommand is returned for a command byte outside the set of
	// known cell commands.
	ErrInvalidCommand = errors.New("invalid cell command")
	// ErrTruncated is returned when fewer bytes remain than a field requires.
	ErrTruncated = errors.New("truncated buffer")
	// ErrLengthMismatch is returned when a declared length disagrees with the
	// bytes actually held.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrBodyMismatch is returned when a body's fixed/variable class does not
	// match its command.
	ErrBodyMismatch = errors.New("body class does not match command")
	// ErrPayloadTooLarge is returned by Reader for variable-length payloads
	// above MaxVarPayloadLen.
	ErrPayloadTooLarge = errors.New("variable-length payload too large")
)

func truncated(field string, need, have int) error {
	return fmt.Errorf("%w: %s needs %d bytes, have %d", ErrTruncated, field, need, have)
}
