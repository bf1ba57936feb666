package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

const certsCellV4 = "0000000081000701010003010203"

func TestRunText(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("# comment\n" + certsCellV4 + "\n\n")
	if err := run(in, &out, options{version: 4, format: "text"}, testLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "CERTS circ=0 len=7") {
		t.Fatalf("unexpected output: %q", got)
	}
	if !strings.Contains(got, "cert[0] RSA_LINK len=3 010203") {
		t.Fatalf("missing cert line: %q", got)
	}
}

func TestRunYAML(t *testing.T) {
	var out bytes.Buffer
	versions := "0000070004" + "00040005"
	in := strings.NewReader(versions + "\n" + certsCellV4[4:] + "\n")
	if err := run(in, &out, options{version: 3, format: "yaml"}, testLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}

	dec := yaml.NewDecoder(&out)
	var first, second cellReport
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if err := dec.Decode(&second); err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if first.Command != "VERSIONS" || !first.Legacy || len(first.Versions) != 2 || first.Versions[1] != 5 {
		t.Fatalf("first: %+v", first)
	}
	if second.Command != "CERTS" || len(second.Certs) != 1 || second.Certs[0].Cert != "010203" {
		t.Fatalf("second: %+v", second)
	}
}

func TestRunReportsFailures(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("zz\n000000000d\n" + certsCellV4 + "\n")
	err := run(in, &out, options{version: 4, format: "text"}, testLogger())
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "2 of 3 lines") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "CERTS") {
		t.Fatal("valid line should still be printed")
	}
}

func TestDumpStrictCerts(t *testing.T) {
	// Declares two certificates, carries one.
	line := "00000000810005" + "0201000109"
	if _, err := dump(line, options{version: 4}); err != nil {
		t.Fatalf("lenient: %v", err)
	}
	if _, err := dump(line, options{version: 4, strict: true}); err == nil {
		t.Fatal("strict: expected error")
	}
}

func TestDumpFixedCellTrimsPadding(t *testing.T) {
	line := "0000000503" + "abcd" + strings.Repeat("00", 507) + "ffff"
	rep, err := dump(line, options{version: 4})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Payload != "abcd" || rep.Length != 509 || rep.Trailing != 2 || rep.CircID != 5 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}
