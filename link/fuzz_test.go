package link

import "testing"

func FuzzParseCerts(f *testing.F) {
	f.Add([]byte{1, 1, 0, 3, 1, 2, 3})
	f.Add([]byte{2, 1, 0, 3, 1, 2, 3, 2, 0, 2, 4, 5})
	f.Add([]byte{1, 1, 0, 3, 1, 2})
	f.Add([]byte{0xFF, 4, 0xFF, 0xFF})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Must not panic on any input.
		certs, err := ParseCerts(data)
		if err != nil {
			return
		}
		if len(data) > 0 && len(certs) > int(data[0]) {
			t.Fatalf("parsed %d certs, declared %d", len(certs), data[0])
		}
		for _, rc := range certs {
			if int(rc.Len) != len(rc.Cert) {
				t.Fatalf("cert len %d holds %d bytes", rc.Len, len(rc.Cert))
			}
		}
		ParseCertsStrict(data)
	})
}
