package link

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cvsouth/torcell/cell"
)

func TestParseCertsSingle(t *testing.T) {
	certs, err := ParseCerts([]byte{1, 1, 0, 3, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(certs) != 1 {
		t.Fatalf("expected 1 cert, got %d", len(certs))
	}
	if certs[0].Type != 1 || certs[0].Len != 3 || !bytes.Equal(certs[0].Cert, []byte{1, 2, 3}) {
		t.Fatalf("unexpected cert: %+v", certs[0])
	}
}

func TestParseCertsMultiple(t *testing.T) {
	certs, err := ParseCerts([]byte{2, 1, 0, 3, 1, 2, 3, 2, 0, 2, 4, 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(certs) != 2 {
		t.Fatalf("expected 2 certs, got %d", len(certs))
	}
	if certs[0].Type != 1 || certs[0].Len != 3 || !bytes.Equal(certs[0].Cert, []byte{1, 2, 3}) {
		t.Fatalf("cert 0: %+v", certs[0])
	}
	if certs[1].Type != 2 || certs[1].Len != 2 || !bytes.Equal(certs[1].Cert, []byte{4, 5}) {
		t.Fatalf("cert 1: %+v", certs[1])
	}
}

func TestParseCertsTruncated(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"short cert data", []byte{1, 1, 0, 3, 1, 2}},
		{"missing length", []byte{1, 4}},
		{"half length", []byte{1, 4, 0}},
		{"second entry cut", []byte{2, 1, 0, 1, 9, 5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCerts(tt.payload); !errors.Is(err, cell.ErrTruncated) {
				t.Fatalf("expected ErrTruncated, got %v", err)
			}
		})
	}
}

func TestParseCertsStopsAtEndOfPayload(t *testing.T) {
	// Declares three certs but only carries one complete entry.
	certs, err := ParseCerts([]byte{3, 4, 0, 1, 0xAA})
	if err != nil {
		t.Fatal(err)
	}
	if len(certs) != 1 || certs[0].Type != CertTypeIdentitySigning {
		t.Fatalf("unexpected certs: %+v", certs)
	}

	if _, err := ParseCertsStrict([]byte{3, 4, 0, 1, 0xAA}); !errors.Is(err, cell.ErrTruncated) {
		t.Fatalf("strict: expected ErrTruncated, got %v", err)
	}
}

func TestParseCertsIgnoresExtraEntries(t *testing.T) {
	certs, err := ParseCerts([]byte{1, 1, 0, 1, 7, 2, 0, 1, 8})
	if err != nil {
		t.Fatal(err)
	}
	if len(certs) != 1 {
		t.Fatalf("expected 1 cert, got %d", len(certs))
	}

	if _, err := ParseCertsStrict([]byte{1, 1, 0, 1, 7, 2, 0, 1, 8}); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("strict: expected ErrTrailingData, got %v", err)
	}
}

func TestParseCertsZeroCount(t *testing.T) {
	certs, err := ParseCertsStrict([]byte{0})
	if err != nil {
		t.Fatal(err)
	}
	if len(certs) != 0 {
		t.Fatalf("expected no certs, got %d", len(certs))
	}
}

func TestEncodeCertsRoundTrip(t *testing.T) {
	in := []RawCert{
		{Type: CertTypeIdentitySigning, Len: 3, Cert: []byte{1, 2, 3}},
		{Type: CertTypeSigningTLS, Len: 0, Cert: nil},
		{Type: CertTypeRSACrossCert, Len: 2, Cert: []byte{4, 5}},
	}
	payload, err := EncodeCerts(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ParseCertsStrict(payload)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d certs, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Type != in[i].Type || out[i].Len != in[i].Len || !bytes.Equal(out[i].Cert, in[i].Cert) {
			t.Fatalf("cert %d mismatch: %+v", i, out[i])
		}
	}
}

func TestEncodeCertsLengthMismatch(t *testing.T) {
	_, err := EncodeCerts([]RawCert{{Type: 1, Len: 4, Cert: []byte{1}}})
	if !errors.Is(err, cell.ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestFindCert(t *testing.T) {
	certs := []RawCert{{Type: CertTypeRSALink}, {Type: CertTypeSigningTLS, Len: 1, Cert: []byte{9}}}
	rc, ok := FindCert(certs, CertTypeSigningTLS)
	if !ok || rc.Cert[0] != 9 {
		t.Fatalf("FindCert: %+v %v", rc, ok)
	}
	if _, ok := FindCert(certs, CertTypeSigningAuth); ok {
		t.Fatal("unexpected match")
	}
}

func TestCertTypeString(t *testing.T) {
	if CertTypeSigningTLS.String() != "SIGNING_V_TLS_CERT" {
		t.Fatalf("got %q", CertTypeSigningTLS.String())
	}
	if CertType(42).String() != "CertType(42)" {
		t.Fatalf("got %q", CertType(42).String())
	}
}
