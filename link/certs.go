package link

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"

	"github.com/cvsouth/torcell/cell"
)

// CertType identifies the kind of certificate carried in a CERTS cell.
type CertType uint8

const (
	CertTypeRSALink         CertType = 1 // Link key certificate certified by RSA1024 identity
	CertTypeRSAIdentity     CertType = 2 // RSA1024 identity certificate, self-signed
	CertTypeRSAAuth         CertType = 3 // RSA1024 AUTHENTICATE cell link certificate
	CertTypeIdentitySigning CertType = 4 // Ed25519 signing key, signed with identity key
	CertTypeSigningTLS      CertType = 5 // TLS link certificate, signed with ed25519 signing key
	CertTypeSigningAuth     CertType = 6 // Ed25519 AUTHENTICATE cell key, signed with signing key
	CertTypeRSACrossCert    CertType = 7 // Ed25519 identity, signed with RSA identity
)

var certTypeNames = map[CertType]string{
	CertTypeRSALink:         "RSA_LINK",
	CertTypeRSAIdentity:     "RSA_IDENTITY",
	CertTypeRSAAuth:         "RSA_AUTH",
	CertTypeIdentitySigning: "IDENTITY_V_SIGNING",
	CertTypeSigningTLS:      "SIGNING_V_TLS_CERT",
	CertTypeSigningAuth:     "SIGNING_V_LINK_AUTH",
	CertTypeRSACrossCert:    "RSA_ID_V_IDENTITY",
}

func (t CertType) String() string {
	if s, ok := certTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("CertType(%d)", uint8(t))
}

// ErrTrailingData is returned by ParseCertsStrict when bytes remain after the
// declared number of certificates.
var ErrTrailingData = errors.New("trailing data after certificates")

// RawCert is one undecoded entry of a CERTS cell.
type RawCert struct {
	Type CertType
	Len  uint16
	Cert []byte
}

// ParseCerts decodes a CERTS cell payload: a 1-byte count followed by
// type(1) length(2) cert(length) entries.
//
// Decoding stops after count entries or when the payload runs out between
// entries, so the result may be shorter than the declared count. An entry cut
// off part way through fails with cell.ErrTruncated. Use ParseCertsStrict to
// require the exact count and no trailing bytes.
func ParseCerts(payload []byte) ([]RawCert, error) {
	s := cryptobyte.String(payload)
	var n uint8
	if !s.ReadUint8(&n) {
		return nil, fmt.Errorf("certs count: %w", cell.ErrTruncated)
	}

	certs := make([]RawCert, 0, n)
	for i := 0; i < int(n) && !s.Empty(); i++ {
		rc, err := readCert(&s)
		if err != nil {
			return nil, fmt.Errorf("cert %d: %w", i, err)
		}
		certs = append(certs, rc)
	}
	return certs, nil
}

// ParseCertsStrict is like ParseCerts but fails unless exactly the declared
// number of certificates is present and the payload is fully consumed.
func ParseCertsStrict(payload []byte) ([]RawCert, error) {
	s := cryptobyte.String(payload)
	var n uint8
	if !s.ReadUint8(&n) {
		return nil, fmt.Errorf("certs count: %w", cell.ErrTruncated)
	}

	certs := make([]RawCert, 0, n)
	for i := 0; i < int(n); i++ {
		rc, err := readCert(&s)
		if err != nil {
			return nil, fmt.Errorf("cert %d of %d: %w", i, n, err)
		}
		certs = append(certs, rc)
	}
	if !s.Empty() {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, len(s))
	}
	return certs, nil
}

func readCert(s *cryptobyte.String) (RawCert, error) {
	var certType uint8
	if !s.ReadUint8(&certType) {
		return RawCert{}, fmt.Errorf("type: %w", cell.ErrTruncated)
	}
	var certLen uint16
	if !s.ReadUint16(&certLen) {
		return RawCert{}, fmt.Errorf("length: %w", cell.ErrTruncated)
	}
	data := make([]byte, certLen)
	if !s.CopyBytes(data) {
		return RawCert{}, fmt.Errorf("type %d data needs %d bytes, have %d: %w",
			certType, certLen, len(*s), cell.ErrTruncated)
	}
	return RawCert{Type: CertType(certType), Len: certLen, Cert: data}, nil
}

// EncodeCerts builds a CERTS cell payload. Each entry's Len must equal
// len(Cert).
func EncodeCerts(certs []RawCert) ([]byte, error) {
	if len(certs) > 0xFF {
		return nil, fmt.Errorf("too many certificates: %d", len(certs))
	}
	b := cryptobyte.NewBuilder(nil)
	b.AddUint8(uint8(len(certs)))
	for i, rc := range certs {
		if int(rc.Len) != len(rc.Cert) {
			return nil, fmt.Errorf("cert %d: %w: declares %d bytes, holds %d",
				i, cell.ErrLengthMismatch, rc.Len, len(rc.Cert))
		}
		b.AddUint8(uint8(rc.Type))
		b.AddUint16(rc.Len)
		b.AddBytes(rc.Cert)
	}
	return b.Bytes()
}

// FindCert returns the first certificate of the given type.
func FindCert(certs []RawCert, t CertType) (RawCert, bool) {
	for _, rc := range certs {
		if rc.Type == t {
			return rc, true
		}
	}
	return RawCert{}, false
}
