package link

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"github.com/cvsouth/torcell/cell"
)

// supportedVersions are the link protocol versions offered in VERSIONS.
var supportedVersions = []uint16{3, 4, 5}

// maxPaddingCells bounds how many PADDING/VPADDING cells are skipped while
// waiting for an expected command.
const maxPaddingCells = 100

// Conn frames cells over an established transport using the negotiated link
// protocol version. The transport itself (TCP, TLS) belongs to the caller.
type Conn struct {
	Reader *cell.Reader
	Writer *cell.Writer
	// PeerCerts holds the certificates from the peer's CERTS cell, unverified.
	PeerCerts []RawCert
	// CircIDs tracks allocated circuit IDs on this link to prevent collisions.
	CircIDs map[uint32]bool
	logger  *slog.Logger
}

// NewConn wraps rw for an already agreed version.
func NewConn(rw io.ReadWriter, version uint16, logger *slog.Logger) *Conn {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{
		Reader: cell.NewReader(bufio.NewReader(rw), version),
		Writer: cell.NewWriter(rw),
		logger: logger,
	}
}

// Version returns the link protocol version used for framing.
func (c *Conn) Version() uint16 { return c.Reader.Version() }

// NewCircID returns a circuit ID of the width this link uses.
func (c *Conn) NewCircID(id uint32) cell.CircID {
	if c.Version() < cell.WideCircIDVersion {
		return cell.LegacyCircID(uint16(id))
	}
	return cell.ModernCircID(id)
}

// ClaimCircID registers a circuit ID on this link. Returns false if already in
// use, if it is the reserved ID 0, or if it does not fit the link's width.
func (c *Conn) ClaimCircID(id uint32) bool {
	if id == 0 || (c.Version() < cell.WideCircIDVersion && id > 0xFFFF) {
		return false
	}
	if c.CircIDs == nil {
		c.CircIDs = make(map[uint32]bool)
	}
	if c.CircIDs[id] {
		return false
	}
	c.CircIDs[id] = true
	return true
}

// ReleaseCircID removes a circuit ID from this link's tracking.
func (c *Conn) ReleaseCircID(id uint32) {
	delete(c.CircIDs, id)
}

func (c *Conn) ReadCell() (cell.Cell, error) {
	return c.Reader.ReadCell()
}

func (c *Conn) WriteCell(cl cell.Cell) error {
	if err := c.Writer.WriteCell(cl); err != nil {
		return fmt.Errorf("write %s cell: %w", cl.Command, err)
	}
	return nil
}

// ReadExpected reads cells, skipping PADDING/VPADDING, until it gets the
// expected command.
func (c *Conn) ReadExpected(expected cell.Command) (cell.Cell, error) {
	for i := 0; i < maxPaddingCells; i++ {
		cl, err := c.ReadCell()
		if err != nil {
			return cell.Cell{}, err
		}
		if cl.Command == cell.CmdPadding || cl.Command == cell.CmdVPadding {
			c.logger.Debug("skipping padding cell", "cmd", cl.Command)
			continue
		}
		if cl.Command != expected {
			return cell.Cell{}, fmt.Errorf("expected %s, got %s", expected, cl.Command)
		}
		return cl, nil
	}
	return cell.Cell{}, fmt.Errorf("too many padding cells before %s", expected)
}

// Handshake runs the opening exchange over rw: VERSIONS in both directions,
// then the peer's CERTS cell. Certificates are decoded but not verified.
// On success the returned Conn frames cells with the negotiated version.
func Handshake(rw io.ReadWriter, logger *slog.Logger) (*Conn, error) {
	c := NewConn(rw, 0, logger)

	c.logger.Debug("sending VERSIONS", "versions", supportedVersions)
	if err := c.WriteCell(cell.NewVersionsCell(supportedVersions)); err != nil {
		return nil, err
	}

	peer, err := c.Reader.ReadVersionsCell()
	if err != nil {
		return nil, fmt.Errorf("read VERSIONS: %w", err)
	}
	versions, err := cell.ParseVersions(peer)
	if err != nil {
		return nil, fmt.Errorf("parse VERSIONS: %w", err)
	}
	c.logger.Debug("received VERSIONS", "versions", versions)

	negotiated := negotiateVersion(versions)
	if negotiated == 0 {
		return nil, fmt.Errorf("no common link protocol version (peer offered %v)", versions)
	}
	c.Reader.SetVersion(negotiated)
	c.logger.Info("version negotiated", "version", negotiated)

	certsCell, err := c.ReadExpected(cell.CmdCerts)
	if err != nil {
		return nil, fmt.Errorf("read CERTS: %w", err)
	}
	certs, err := ParseCerts(certsCell.Payload())
	if err != nil {
		return nil, fmt.Errorf("parse CERTS: %w", err)
	}
	if declared := int(certsCell.Payload()[0]); len(certs) < declared {
		c.logger.Warn("CERTS cell shorter than declared", "declared", declared, "parsed", len(certs))
	}
	for i, rc := range certs {
		c.logger.Debug("cert entry", "index", i, "type", rc.Type, "len", rc.Len)
	}
	c.PeerCerts = certs

	return c, nil
}

func negotiateVersion(peerVersions []uint16) uint16 {
	ours := make(map[uint16]bool, len(supportedVersions))
	for _, v := range supportedVersions {
		ours[v] = true
	}
	var best uint16
	for _, v := range peerVersions {
		if ours[v] && v > best {
			best = v
		}
	}
	return best
}
