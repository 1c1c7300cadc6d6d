package propfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/moffa90/go-flexfx/protocol"
)

// TokensPerLine is the number of hex tokens describing one property:
// the command followed by five payload words.
const TokensPerLine = protocol.WordCount

// DefaultCapacity is the default initial capacity for the property slice.
const DefaultCapacity = 64

// File is a parsed batch property file.
type File struct {
	// Properties are the records in file order
	Properties []protocol.Property

	// Lines is the number of lines consumed, including the line that ended
	// input if parsing stopped early
	Lines int

	// Stopped describes the line that ended input early, or is nil if the
	// whole file was consumed
	Stopped *ParseError
}

// Parse parses a batch property file from the given path.
//
// Example:
//
//	f, err := propfile.Parse("presets.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d properties\n", len(f.Properties))
func Parse(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses batch property text from any io.Reader.
//
// Each line holds six whitespace-separated hex tokens. Parsing stops at the
// first line with fewer than six tokens or an invalid token; that line and
// everything after it are ignored and the reason is recorded in File.Stopped.
// Only read errors are returned as errors.
func ParseReader(r io.Reader) (*File, error) {
	scanner := bufio.NewScanner(r)
	file := &File{
		Properties: make([]protocol.Property, 0, DefaultCapacity),
	}

	for scanner.Scan() {
		file.Lines++

		prop, err := ParseFields(strings.Fields(scanner.Text()))
		if err != nil {
			pe := &ParseError{Line: file.Lines, Err: err}
			file.Stopped = pe
			return file, nil
		}

		file.Properties = append(file.Properties, prop)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return file, nil
}

// ParseFields builds a property from six hex tokens.
// Extra tokens after the sixth are ignored.
//
// Example:
//
//	prop, err := propfile.ParseFields([]string{"8001", "11111111", "0", "0", "0", "0"})
func ParseFields(fields []string) (protocol.Property, error) {
	var prop protocol.Property

	if len(fields) < TokensPerLine {
		return prop, fmt.Errorf("expected %d hex values, got %d", TokensPerLine, len(fields))
	}

	for i := range prop {
		v, err := parseWord(fields[i])
		if err != nil {
			return protocol.Property{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		prop[i] = v
	}

	return prop, nil
}

// ParseArgs builds a property from exactly six hex command-line arguments.
// Unlike batch parsing, any malformed input is an error.
func ParseArgs(args []string) (protocol.Property, error) {
	if len(args) != TokensPerLine {
		return protocol.Property{}, fmt.Errorf("expected %d hex values, got %d", TokensPerLine, len(args))
	}
	return ParseFields(args)
}

// parseWord parses one hex token into a 32-bit word. An optional 0x prefix
// is accepted.
func parseWord(tok string) (uint32, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("invalid hex value %q", tok)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value %q: %w", tok, err)
	}
	return uint32(v), nil
}
