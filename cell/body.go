package cell

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// Body is a cell body. Fixed bodies hold exactly MaxPayloadLen bytes.
// Variable bodies hold a declared Length and that many Payload bytes.
// Which kind applies is decided by the command, see Command.IsVariableLength.
type Body struct {
	Variable bool
	Length   uint16 // declared length, variable bodies only
	Payload  []byte
}

// FixedBody returns a fixed body holding p zero-padded to MaxPayloadLen.
// It panics if p is longer than MaxPayloadLen.
func FixedBody(p []byte) Body {
	if len(p) > MaxPayloadLen {
		panic(fmt.Sprintf("cell: fixed payload of %d bytes exceeds %d", len(p), MaxPayloadLen))
	}
	buf := make([]byte, MaxPayloadLen)
	copy(buf, p)
	return Body{Payload: buf}
}

// VarBody returns a variable body whose declared length is len(p).
// It panics if p does not fit a 16-bit length.
func VarBody(p []byte) Body {
	if len(p) > 0xFFFF {
		panic(fmt.Sprintf("cell: variable payload of %d bytes exceeds 65535", len(p)))
	}
	return Body{Variable: true, Length: uint16(len(p)), Payload: append([]byte(nil), p...)}
}

// Len returns the encoded size of the body.
func (b Body) Len() int {
	if b.Variable {
		return 2 + len(b.Payload)
	}
	return MaxPayloadLen
}

// Encode serializes the body. The declared length of a variable body must
// equal len(Payload), and a fixed body must hold exactly MaxPayloadLen bytes.
func (b Body) Encode() ([]byte, error) {
	bb := cryptobyte.NewBuilder(make([]byte, 0, b.Len()))
	if err := b.marshal(bb); err != nil {
		return nil, err
	}
	return bb.Bytes()
}

func (b Body) marshal(bb *cryptobyte.Builder) error {
	if !b.Variable {
		if len(b.Payload) != MaxPayloadLen {
			return fmt.Errorf("%w: fixed body holds %d bytes, want %d", ErrLengthMismatch, len(b.Payload), MaxPayloadLen)
		}
		bb.AddBytes(b.Payload)
		return nil
	}
	if int(b.Length) != len(b.Payload) {
		return fmt.Errorf("%w: variable body declares %d bytes, holds %d", ErrLengthMismatch, b.Length, len(b.Payload))
	}
	bb.AddUint16(b.Length)
	bb.AddBytes(b.Payload)
	return nil
}

// DecodeBody reads the body for cmd from the front of b and returns it with
// the number of bytes consumed.
func DecodeBody(b []byte, cmd Command) (Body, int, error) {
	if !cmd.Valid() {
		return Body{}, 0, fmt.Errorf("%w: %d", ErrInvalidCommand, uint8(cmd))
	}
	s := cryptobyte.String(b)
	body, err := readBody(&s, cmd)
	if err != nil {
		return Body{}, 0, err
	}
	return body, len(b) - len(s), nil
}

func readBody(s *cryptobyte.String, cmd Command) (Body, error) {
	if !cmd.IsVariableLength() {
		payload := make([]byte, MaxPayloadLen)
		if !s.CopyBytes(payload) {
			return Body{}, truncated("fixed body", MaxPayloadLen, len(*s))
		}
		return Body{Payload: payload}, nil
	}

	var n uint16
	if !s.ReadUint16(&n) {
		return Body{}, truncated("body length", 2, len(*s))
	}
	payload := make([]byte, n)
	if !s.CopyBytes(payload) {
		return Body{}, truncated("variable body", int(n), len(*s))
	}
	return Body{Variable: true, Length: n, Payload: payload}, nil
}
