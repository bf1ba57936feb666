package cell

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Reader reads cells from a buffered stream, framing each cell with the
// circuit ID width of the negotiated link protocol version.
type Reader struct {
	r       *bufio.Reader
	version uint16
}

func NewReader(r *bufio.Reader, version uint16) *Reader {
	return &Reader{r: r, version: version}
}

func (cr *Reader) Version() uint16 { return cr.version }

// SetVersion switches framing after version negotiation.
func (cr *Reader) SetVersion(version uint16) { cr.version = version }

// ReadCell reads and decodes exactly one cell.
func (cr *Reader) ReadCell() (Cell, error) {
	return cr.readCell(cr.version)
}

// ReadVersionsCell reads a VERSIONS cell, which uses a 2-byte CircID
// regardless of the reader's version.
func (cr *Reader) ReadVersionsCell() (Cell, error) {
	c, err := cr.readCell(0)
	if err != nil {
		return Cell{}, err
	}
	if c.Command != CmdVersions {
		return Cell{}, fmt.Errorf("expected VERSIONS (7), got %s", c.Command)
	}
	return c, nil
}

func (cr *Reader) readCell(version uint16) (Cell, error) {
	idLen := CircIDLen(version)
	hdr := make([]byte, idLen+1)
	if _, err := io.ReadFull(cr.r, hdr); err != nil {
		return Cell{}, fmt.Errorf("read cell header: %w", err)
	}
	cmd, err := ParseCommand(hdr[idLen])
	if err != nil {
		return Cell{}, fmt.Errorf("read cell header: %w", err)
	}

	var buf []byte
	if cmd.IsVariableLength() {
		var lenBuf [2]byte
		if _, err := io.ReadFull(cr.r, lenBuf[:]); err != nil {
			return Cell{}, fmt.Errorf("read varlen length: %w", err)
		}
		pLen := binary.BigEndian.Uint16(lenBuf[:])
		if int(pLen) > MaxVarPayloadLen {
			return Cell{}, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, pLen, MaxVarPayloadLen)
		}
		buf = make([]byte, len(hdr)+2+int(pLen))
		copy(buf, hdr)
		copy(buf[len(hdr):], lenBuf[:])
		if _, err := io.ReadFull(cr.r, buf[len(hdr)+2:]); err != nil {
			return Cell{}, fmt.Errorf("read varlen payload: %w", err)
		}
	} else {
		buf = make([]byte, len(hdr)+MaxPayloadLen)
		copy(buf, hdr)
		if _, err := io.ReadFull(cr.r, buf[len(hdr):]); err != nil {
			return Cell{}, fmt.Errorf("read fixed payload: %w", err)
		}
	}

	return Decode(buf, version)
}

// Writer writes encoded cells.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (cw *Writer) WriteCell(c Cell) error {
	b, err := c.Encode()
	if err != nil {
		return err
	}
	_, err = cw.w.Write(b)
	return err
}
