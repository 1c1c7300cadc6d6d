package midi

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// DefaultQueueDepth is the number of complete inbound messages buffered
// before the reader applies backpressure to the stream.
const DefaultQueueDepth = 64

// readBufferSize is the size of a single stream read.
const readBufferSize = 256

// Port is a duplex MIDI message channel over a byte stream.
//
// Send writes one complete message. Receive is a non-blocking poll that
// returns the oldest complete inbound sysex message, if any. A background
// goroutine reads the stream and splits it into messages.
//
// Port is safe for concurrent use, although the transfer protocol drives it
// from a single goroutine.
type Port struct {
	rw        io.ReadWriteCloser
	name      string
	idleOnEOF bool
	maxMsg    int

	msgs chan []byte
	done chan struct{}

	wmu sync.Mutex

	mu       sync.Mutex
	readErr  error
	closed   bool
	closeErr error
	dropped  int
}

// PortOption configures a Port.
type PortOption func(*Port)

// WithName sets the name used in error messages.
func WithName(name string) PortOption {
	return func(p *Port) {
		p.name = name
	}
}

// WithIdleOnEOF treats io.EOF from the stream as "no data yet" rather than
// end of stream. Serial ports with a read timeout report timeouts this way.
func WithIdleOnEOF() PortOption {
	return func(p *Port) {
		p.idleOnEOF = true
	}
}

// WithMaxMessage bounds the length of an inbound sysex message.
func WithMaxMessage(n int) PortOption {
	return func(p *Port) {
		if n > 0 {
			p.maxMsg = n
		}
	}
}

// NewPort wraps a byte stream and starts reading from it.
// The Port owns rw and closes it on Close.
func NewPort(rw io.ReadWriteCloser, opts ...PortOption) *Port {
	if rw == nil {
		panic("stream cannot be nil")
	}

	p := &Port{
		rw:     rw,
		name:   "midi",
		maxMsg: DefaultMaxMessage,
		msgs:   make(chan []byte, DefaultQueueDepth),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	go p.readLoop()
	return p
}

// Name returns the port's name.
func (p *Port) Name() string {
	return p.name
}

// Send writes one complete message to the stream.
func (p *Port) Send(msg []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return &ChannelError{Port: p.name, Op: "send", Err: ErrClosed}
	}

	p.wmu.Lock()
	defer p.wmu.Unlock()

	if _, err := p.rw.Write(msg); err != nil {
		return &ChannelError{Port: p.name, Op: "send", Err: err}
	}
	return nil
}

// Receive returns the next pending message without blocking. ok is false
// when no message is pending. Once the stream has failed and every buffered
// message has been drained, Receive returns the read error.
func (p *Port) Receive() (msg []byte, ok bool, err error) {
	select {
	case msg = <-p.msgs:
		return msg, true, nil
	default:
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, false, &ChannelError{Port: p.name, Op: "receive", Err: ErrClosed}
	}
	if p.readErr != nil {
		return nil, false, &ChannelError{Port: p.name, Op: "receive", Err: p.readErr}
	}
	return nil, false, nil
}

// Dropped returns the number of malformed inbound sysex messages discarded.
func (p *Port) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Close stops the reader and closes the underlying stream.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return p.closeErr
	}
	p.closed = true
	close(p.done)
	p.closeErr = p.rw.Close()
	return p.closeErr
}

func (p *Port) readLoop() {
	splitter := NewSplitter(p.maxMsg)
	buf := make([]byte, readBufferSize)

	emit := func(msg []byte) {
		select {
		case p.msgs <- msg:
		case <-p.done:
		}
	}

	for {
		n, err := p.rw.Read(buf)
		if n > 0 {
			splitter.Feed(buf[:n], emit)

			p.mu.Lock()
			p.dropped = splitter.Dropped()
			p.mu.Unlock()
		}

		if err == nil {
			continue
		}

		select {
		case <-p.done:
			return
		default:
		}

		if p.idleOnEOF && errors.Is(err, io.EOF) {
			continue
		}

		p.mu.Lock()
		p.readErr = err
		p.mu.Unlock()
		return
	}
}

// String implements fmt.Stringer.
func (p *Port) String() string {
	return fmt.Sprintf("midi port %q", p.name)
}
