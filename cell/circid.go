package cell

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// WideCircIDVersion is the first link protocol version using 4-byte circuit IDs.
const WideCircIDVersion = 4

// CircID is a circuit identifier. Link protocol versions below 4 use 2-byte
// (legacy) IDs, later versions 4-byte (modern) IDs. The width is never
// inferred from the wire; it comes from the negotiated version.
//
// The zero value is a modern ID of 0.
type CircID struct {
	id     uint32
	legacy bool
}

func LegacyCircID(id uint16) CircID {
	return CircID{id: uint32(id), legacy: true}
}

func ModernCircID(id uint32) CircID {
	return CircID{id: id}
}

// CircIDLen returns the circuit ID width in bytes for a link protocol version.
func CircIDLen(version uint16) int {
	if version < WideCircIDVersion {
		return 2
	}
	return 4
}

func (c CircID) Value() uint32 { return c.id }

func (c CircID) IsLegacy() bool { return c.legacy }

// Len returns the encoded width in bytes.
func (c CircID) Len() int {
	if c.legacy {
		return 2
	}
	return 4
}

func (c CircID) String() string {
	if c.legacy {
		return fmt.Sprintf("0x%04x", c.id)
	}
	return fmt.Sprintf("0x%08x", c.id)
}

// Encode returns the big-endian encoding at the ID's native width.
func (c CircID) Encode() []byte {
	b := cryptobyte.NewBuilder(make([]byte, 0, c.Len()))
	c.marshal(b)
	return b.BytesOrPanic()
}

func (c CircID) marshal(b *cryptobyte.Builder) {
	if c.legacy {
		b.AddUint16(uint16(c.id))
		return
	}
	b.AddUint32(c.id)
}

// DecodeCircID reads a circuit ID from the front of b using the width implied
// by version. It returns the ID and the number of bytes consumed.
func DecodeCircID(b []byte, version uint16) (CircID, int, error) {
	s := cryptobyte.String(b)
	c, err := readCircID(&s, version)
	if err != nil {
		return CircID{}, 0, err
	}
	return c, len(b) - len(s), nil
}

func readCircID(s *cryptobyte.String, version uint16) (CircID, error) {
	if version < WideCircIDVersion {
		var id uint16
		if !s.ReadUint16(&id) {
			return CircID{}, truncated("circuit id", 2, len(*s))
		}
		return LegacyCircID(id), nil
	}
	var id uint32
	if !s.ReadUint32(&id) {
		return CircID{}, truncated("circuit id", 4, len(*s))
	}
	return ModernCircID(id), nil
}
