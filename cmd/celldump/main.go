// Command celldump decodes hex-encoded link cells and prints them.
//
//	celldump -version 4 0000000081000701010003010203
//	echo 00000700020004 | celldump -version 3 -format yaml
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cvsouth/torcell/cell"
	"github.com/cvsouth/torcell/link"
)

type options struct {
	version uint16
	format  string
	strict  bool
}

func main() {
	version := flag.Uint("version", 4, "negotiated link protocol version")
	format := flag.String("format", "text", "output format: text or yaml")
	strict := flag.Bool("strict", false, "require CERTS payloads to hold exactly the declared certificates")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *version > 0xFFFF {
		fmt.Fprintf(os.Stderr, "version out of range: %d\n", *version)
		os.Exit(2)
	}
	if *format != "text" && *format != "yaml" {
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		os.Exit(2)
	}
	opts := options{version: uint16(*version), format: *format, strict: *strict}

	var in io.Reader = os.Stdin
	if flag.NArg() > 0 {
		in = strings.NewReader(strings.Join(flag.Args(), "\n"))
	}
	if err := run(in, os.Stdout, opts, logger); err != nil {
		fmt.Fprintf(os.Stderr, "celldump: %v\n", err)
		os.Exit(1)
	}
}

// run decodes one hex cell per non-empty input line. It keeps going after a
// bad line and reports failure at the end.
func run(in io.Reader, out io.Writer, opts options, logger *slog.Logger) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var failed int
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rep, err := dump(text, opts)
		if err != nil {
			logger.Error("decode failed", "line", line, "error", err)
			failed++
			continue
		}
		logger.Debug("decoded cell", "line", line, "cmd", rep.Command, "bytes", rep.Bytes)
		if err := write(out, rep, opts.format); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lines failed to decode", failed, line)
	}
	return nil
}

type certReport struct {
	Type string `yaml:"type"`
	Len  uint16 `yaml:"len"`
	Cert string `yaml:"cert"`
}

type cellReport struct {
	Bytes    int          `yaml:"bytes"`
	CircID   uint32       `yaml:"circ_id"`
	Legacy   bool         `yaml:"legacy_circ_id"`
	Command  string       `yaml:"command"`
	Variable bool         `yaml:"variable"`
	Length   uint16       `yaml:"length"`
	Payload  string       `yaml:"payload"`
	Versions []uint16     `yaml:"versions,omitempty"`
	Certs    []certReport `yaml:"certs,omitempty"`
	Trailing int          `yaml:"trailing_bytes,omitempty"`
}

func dump(text string, opts options) (cellReport, error) {
	raw, err := hex.DecodeString(strings.ReplaceAll(text, " ", ""))
	if err != nil {
		return cellReport{}, fmt.Errorf("hex: %w", err)
	}
	c, n, err := cell.DecodePrefix(raw, opts.version)
	if err != nil {
		return cellReport{}, err
	}
	rep := cellReport{
		Bytes:    n,
		CircID:   c.CircID.Value(),
		Legacy:   c.CircID.IsLegacy(),
		Command:  c.Command.String(),
		Variable: c.Body.Variable,
		Length:   uint16(len(c.Payload())),
		Payload:  hex.EncodeToString(trimZeros(c)),
		Trailing: len(raw) - n,
	}
	if c.Body.Variable {
		rep.Length = c.Body.Length
	}

	switch c.Command {
	case cell.CmdVersions:
		if rep.Versions, err = cell.ParseVersions(c); err != nil {
			return cellReport{}, err
		}
	case cell.CmdCerts:
		parse := link.ParseCerts
		if opts.strict {
			parse = link.ParseCertsStrict
		}
		certs, err := parse(c.Payload())
		if err != nil {
			return cellReport{}, fmt.Errorf("CERTS payload: %w", err)
		}
		for _, rc := range certs {
			rep.Certs = append(rep.Certs, certReport{
				Type: rc.Type.String(),
				Len:  rc.Len,
				Cert: hex.EncodeToString(rc.Cert),
			})
		}
	}
	return rep, nil
}

// trimZeros drops the zero padding at the end of fixed-length payloads.
func trimZeros(c cell.Cell) []byte {
	p := c.Payload()
	if c.Body.Variable {
		return p
	}
	end := len(p)
	for end > 0 && p[end-1] == 0 {
		end--
	}
	return p[:end]
}

func write(out io.Writer, rep cellReport, format string) error {
	if format == "yaml" {
		// Each cell is its own YAML document.
		if _, err := io.WriteString(out, "---\n"); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("yaml: %w", err)
		}
		return enc.Close()
	}

	legacy := ""
	if rep.Legacy {
		legacy = " (legacy)"
	}
	if _, err := fmt.Fprintf(out, "%s circ=%d%s len=%d payload=%s\n",
		rep.Command, rep.CircID, legacy, rep.Length, rep.Payload); err != nil {
		return err
	}
	if rep.Versions != nil {
		fmt.Fprintf(out, "  versions: %v\n", rep.Versions)
	}
	for i, ce := range rep.Certs {
		fmt.Fprintf(out, "  cert[%d] %s len=%d %s\n", i, ce.Type, ce.Len, ce.Cert)
	}
	if rep.Trailing > 0 {
		fmt.Fprintf(out, "  %d trailing bytes ignored\n", rep.Trailing)
	}
	return nil
}
