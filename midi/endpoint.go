package midi

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// Kind selects how an endpoint's device node is opened.
type Kind string

const (
	// KindRawMIDI is a raw MIDI character device such as /dev/snd/midiC1D0
	KindRawMIDI Kind = "rawmidi"

	// KindSerial is a serial port carrying a MIDI byte stream
	KindSerial Kind = "serial"
)

const (
	// DefaultBaud is the MIDI 1.0 DIN baud rate, used for serial endpoints
	// without an explicit baud rate
	DefaultBaud = 31250

	// DefaultSerialReadTimeout bounds each serial read so Close is prompt
	DefaultSerialReadTimeout = 100 * time.Millisecond
)

// DefaultPatterns are the globs searched for raw MIDI device nodes.
var DefaultPatterns = []string{"/dev/snd/midiC*D*"}

// Endpoint is a MIDI device the tool can open, addressed by a numeric index.
type Endpoint struct {
	// Index is the numeric port identifier shown by the list command
	Index int

	// Name is a human-readable label
	Name string

	// Path is the device node
	Path string

	// Kind selects the open method
	Kind Kind

	// Baud is the serial baud rate (serial endpoints only)
	Baud int
}

// String renders the endpoint the way the list command prints it.
func (e Endpoint) String() string {
	return fmt.Sprintf("%d='%s' (%s %s)", e.Index, e.Name, e.Kind, e.Path)
}

// Discover returns the configured endpoints followed by raw MIDI device nodes
// matching patterns, numbered from zero in that order. Nodes already named by
// a configured endpoint are not repeated.
func Discover(configured []Endpoint, patterns []string) ([]Endpoint, error) {
	out := make([]Endpoint, 0, len(configured))
	seen := make(map[string]bool)

	for _, ep := range configured {
		if ep.Kind == "" {
			ep.Kind = KindRawMIDI
		}
		if ep.Name == "" {
			ep.Name = filepath.Base(ep.Path)
		}
		seen[ep.Path] = true
		out = append(out, ep)
	}

	var found []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid discovery pattern %q: %w", pattern, err)
		}
		found = append(found, matches...)
	}
	sort.Strings(found)

	for _, path := range found {
		if seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, Endpoint{
			Name: rawMIDIName(path),
			Path: path,
			Kind: KindRawMIDI,
		})
	}

	for i := range out {
		out[i].Index = i
	}
	return out, nil
}

// Lookup returns the endpoint with the given index.
func Lookup(endpoints []Endpoint, index int) (Endpoint, error) {
	if index < 0 || index >= len(endpoints) {
		return Endpoint{}, &EndpointNotFoundError{Index: index, Count: len(endpoints)}
	}
	return endpoints[index], nil
}

// Open opens the endpoint's device node and returns a running Port.
// The caller must Close the port.
func Open(ep Endpoint) (*Port, error) {
	switch ep.Kind {
	case KindRawMIDI, "":
		f, err := os.OpenFile(ep.Path, os.O_RDWR, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to open raw MIDI device %s: %w", ep.Path, err)
		}
		return NewPort(f, WithName(ep.Name)), nil

	case KindSerial:
		baud := ep.Baud
		if baud <= 0 {
			baud = DefaultBaud
		}
		sp, err := serial.OpenPort(&serial.Config{
			Name:        ep.Path,
			Baud:        baud,
			ReadTimeout: DefaultSerialReadTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open serial port %s: %w", ep.Path, err)
		}
		return NewPort(sp, WithName(ep.Name), WithIdleOnEOF()), nil

	default:
		return nil, fmt.Errorf("unknown endpoint kind %q", ep.Kind)
	}
}

var rawMIDINode = regexp.MustCompile(`midiC(\d+)D(\d+)$`)

// asoundRoot is where card ids are looked up; replaced in tests.
var asoundRoot = "/proc/asound"

// rawMIDIName labels a raw MIDI node with its ALSA card id when available.
func rawMIDIName(path string) string {
	m := rawMIDINode.FindStringSubmatch(path)
	if m == nil {
		return filepath.Base(path)
	}
	card, _ := strconv.Atoi(m[1])
	id, err := os.ReadFile(filepath.Join(asoundRoot, fmt.Sprintf("card%d", card), "id"))
	if err != nil {
		return filepath.Base(path)
	}
	return fmt.Sprintf("%s:%s", strings.TrimSpace(string(id)), m[2])
}
