package cell

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

const (
	MaxPayloadLen    = 509
	MaxVarPayloadLen = 10000 // Safety cap for variable-length cell payloads read from a stream
)

// FixedCellLen returns the size of a fixed-length cell under version
// (512 bytes before v4, 514 after).
func FixedCellLen(version uint16) int {
	return CircIDLen(version) + 1 + MaxPayloadLen
}

// Cell is a decoded link cell.
type Cell struct {
	CircID  CircID
	Command Command
	Body    Body
}

func New(id CircID, cmd Command, body Body) Cell {
	return Cell{CircID: id, Command: cmd, Body: body}
}

// NewFixed creates a fixed-length cell, zero-padding payload to MaxPayloadLen.
func NewFixed(id CircID, cmd Command, payload []byte) Cell {
	return New(id, cmd, FixedBody(payload))
}

// NewVar creates a variable-length cell with the given payload.
func NewVar(id CircID, cmd Command, payload []byte) Cell {
	return New(id, cmd, VarBody(payload))
}

// NewVersionsCell creates a VERSIONS cell. VERSIONS is sent before a version
// is agreed, so it always uses a 2-byte CircID of 0.
func NewVersionsCell(versions []uint16) Cell {
	payload := make([]byte, 2*len(versions))
	for i, v := range versions {
		binary.BigEndian.PutUint16(payload[2*i:], v)
	}
	return NewVar(LegacyCircID(0), CmdVersions, payload)
}

// ParseVersions extracts the version list from a VERSIONS cell.
func ParseVersions(c Cell) ([]uint16, error) {
	if c.Command != CmdVersions {
		return nil, fmt.Errorf("expected VERSIONS, got %s", c.Command)
	}
	s := cryptobyte.String(c.Body.Payload)
	versions := make([]uint16, 0, len(s)/2)
	for !s.Empty() {
		var v uint16
		if !s.ReadUint16(&v) {
			return nil, truncated("version", 2, len(s))
		}
		versions = append(versions, v)
	}
	return versions, nil
}

func (c Cell) Payload() []byte { return c.Body.Payload }

// Len returns the encoded size of the cell.
func (c Cell) Len() int {
	return c.CircID.Len() + 1 + c.Body.Len()
}

// Encode serializes the cell as CircID, command byte, then body. It fails if
// the command is unknown, if the body class disagrees with the command, or if
// a body length is inconsistent.
func (c Cell) Encode() ([]byte, error) {
	if !c.Command.Valid() {
		return nil, fmt.Errorf("encode cell: %w: %d", ErrInvalidCommand, uint8(c.Command))
	}
	if c.Body.Variable != c.Command.IsVariableLength() {
		return nil, fmt.Errorf("encode %s cell: %w", c.Command, ErrBodyMismatch)
	}
	b := cryptobyte.NewBuilder(make([]byte, 0, c.Len()))
	c.CircID.marshal(b)
	b.AddUint8(uint8(c.Command))
	if err := c.Body.marshal(b); err != nil {
		return nil, fmt.Errorf("encode %s cell: %w", c.Command, err)
	}
	return b.Bytes()
}

// Decode parses one cell from b. The circuit ID width is taken from version.
// A fixed-length body consumes exactly MaxPayloadLen bytes; the caller frames
// b to a single cell and any trailing bytes are ignored.
func Decode(b []byte, version uint16) (Cell, error) {
	c, _, err := DecodePrefix(b, version)
	return c, err
}

// DecodePrefix is like Decode but also returns the number of bytes consumed.
func DecodePrefix(b []byte, version uint16) (Cell, int, error) {
	s := cryptobyte.String(b)

	id, err := readCircID(&s, version)
	if err != nil {
		return Cell{}, 0, fmt.Errorf("decode cell header: %w", err)
	}

	var raw uint8
	if !s.ReadUint8(&raw) {
		return Cell{}, 0, fmt.Errorf("decode cell header: %w", truncated("command", 1, 0))
	}
	cmd, err := ParseCommand(raw)
	if err != nil {
		return Cell{}, 0, fmt.Errorf("decode cell header: %w", err)
	}

	body, err := readBody(&s, cmd)
	if err != nil {
		return Cell{}, 0, fmt.Errorf("decode %s body: %w", cmd, err)
	}

	return Cell{CircID: id, Command: cmd, Body: body}, len(b) - len(s), nil
}
