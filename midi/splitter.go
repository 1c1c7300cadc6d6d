package midi

// MIDI status bytes relevant to system exclusive framing.
const (
	statusSysexStart = 0xF0
	statusSysexEnd   = 0xF7
	statusRealtime   = 0xF8
	statusBit        = 0x80
)

// DefaultMaxMessage bounds the length of a buffered sysex message. Property
// frames are 50 bytes; anything much larger is not for us.
const DefaultMaxMessage = 1024

// Splitter extracts complete system exclusive messages from a MIDI byte
// stream. Realtime bytes (0xF8-0xFF, including active sensing) are ignored
// wherever they appear. Channel and common messages are dropped, and any
// status byte other than 0xF7 aborts a sysex message in progress.
//
// A Splitter is not safe for concurrent use.
type Splitter struct {
	buf     []byte
	in      bool
	max     int
	dropped int
}

// NewSplitter returns a Splitter that discards sysex messages longer than
// max bytes. A max of zero or less selects DefaultMaxMessage.
func NewSplitter(max int) *Splitter {
	if max <= 0 {
		max = DefaultMaxMessage
	}
	return &Splitter{max: max}
}

// Feed consumes stream bytes and calls emit once per complete message,
// markers included. The slice passed to emit is owned by the callee.
func (s *Splitter) Feed(p []byte, emit func([]byte)) {
	for _, b := range p {
		switch {
		case b >= statusRealtime:
			continue

		case b == statusSysexStart:
			if s.in {
				s.dropped++
			}
			s.buf = append(s.buf[:0], b)
			s.in = true

		case !s.in:
			continue

		case b == statusSysexEnd:
			s.buf = append(s.buf, b)
			msg := make([]byte, len(s.buf))
			copy(msg, s.buf)
			s.in = false
			emit(msg)

		case b&statusBit != 0:
			s.in = false
			s.dropped++

		default:
			if len(s.buf) >= s.max {
				s.in = false
				s.dropped++
				continue
			}
			s.buf = append(s.buf, b)
		}
	}
}

// Dropped returns the number of incomplete or oversized messages discarded.
func (s *Splitter) Dropped() int {
	return s.dropped
}
