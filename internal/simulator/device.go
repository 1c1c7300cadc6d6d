// Package simulator provides a simulated FlexFX device that speaks the
// property protocol. It is used by tests, the examples and the CLI's
// --simulate flag so the tool can run without hardware.
package simulator

import (
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/moffa90/go-flexfx/programmer"
	"github.com/moffa90/go-flexfx/protocol"
)

// ErrClosed is returned by Send and Receive after Close.
var ErrClosed = errors.New("simulator: device closed")

// Device simulates a FlexFX device. It acknowledges every request except
// flash finalize by echoing the command word, and keeps the flash image,
// RAM properties page and presets it was sent.
type Device struct {
	mu sync.Mutex

	flash     []byte
	erased    bool
	finalized bool
	ram       map[int][protocol.RAMBlockWords]uint32
	presets   [protocol.MaxPresets][protocol.RAMBlockWords]uint32
	labels    []string
	received  []protocol.Property
	outbox    []reply
	closed    bool

	latency    time.Duration
	noiseEvery int
	noise      protocol.Property
	dropped    map[protocol.Command]bool
	logger     programmer.Logger
}

type reply struct {
	at  time.Time
	msg []byte
}

// Option configures a Device.
type Option func(*Device)

// WithLatency delays every reply by d.
func WithLatency(d time.Duration) Option {
	return func(dev *Device) {
		dev.latency = d
	}
}

// WithLabels sets the parameter names returned for label reads.
func WithLabels(labels ...string) Option {
	return func(dev *Device) {
		dev.labels = labels
	}
}

// WithNoise queues rec ahead of every n-th acknowledgement, the way a real
// device interleaves settings notifications with acks.
func WithNoise(n int, rec protocol.Property) Option {
	return func(dev *Device) {
		dev.noiseEvery = n
		dev.noise = rec
	}
}

// WithDroppedAcks makes the device stay silent for the given commands.
func WithDroppedAcks(cmds ...protocol.Command) Option {
	return func(dev *Device) {
		for _, cmd := range cmds {
			dev.dropped[cmd] = true
		}
	}
}

// WithLogger logs every handled request.
func WithLogger(logger programmer.Logger) Option {
	return func(dev *Device) {
		dev.logger = logger
	}
}

// New creates a simulated device with empty flash and RAM.
func New(opts ...Option) *Device {
	dev := &Device{
		ram:     make(map[int][protocol.RAMBlockWords]uint32),
		dropped: make(map[protocol.Command]bool),
	}
	for _, opt := range opts {
		opt(dev)
	}
	return dev
}

// Send handles one request frame. Malformed frames are ignored, as the
// firmware does.
func (d *Device) Send(msg []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if err := protocol.Validate(msg); err != nil {
		d.logDebug("ignored malformed frame", "error", err.Error())
		return nil
	}

	req := protocol.Decode(msg)
	d.received = append(d.received, req)

	ack, ok := d.handle(req)
	if !ok || d.dropped[req.Command()] {
		return nil
	}

	if d.noiseEvery > 0 && len(d.received)%d.noiseEvery == 0 {
		d.queue(d.noise)
	}
	d.queue(ack)
	return nil
}

// Receive returns the next reply whose latency has elapsed.
func (d *Device) Receive() ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, false, ErrClosed
	}
	if len(d.outbox) == 0 || time.Now().Before(d.outbox[0].at) {
		return nil, false, nil
	}

	r := d.outbox[0]
	d.outbox = d.outbox[1:]
	return r.msg, true, nil
}

// Close releases the device. Further calls to Send and Receive fail.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Inject queues an unsolicited reply.
func (d *Device) Inject(rec protocol.Property) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue(rec)
}

func (d *Device) queue(rec protocol.Property) {
	d.outbox = append(d.outbox, reply{
		at:  time.Now().Add(d.latency),
		msg: protocol.Encode(rec),
	})
}

// handle applies req to the device state and returns the acknowledgement.
// ok is false when the device does not reply.
func (d *Device) handle(req protocol.Property) (ack protocol.Property, ok bool) {
	cmd := req.Command()

	switch {
	case cmd == protocol.CmdFlashErase:
		d.flash = d.flash[:0]
		d.erased = true
		d.finalized = false
		d.logDebug("flash erased")

	case cmd == protocol.CmdFlashWrite:
		var chunk [protocol.FlashChunkSize]byte
		for i, w := range req[1 : 1+protocol.FlashChunkWords] {
			binary.BigEndian.PutUint32(chunk[4*i:], w)
		}
		d.flash = append(d.flash, chunk[:]...)

	case cmd == protocol.CmdFlashFinalize:
		d.finalized = true
		d.logDebug("flash finalized", "bytes", len(d.flash))
		return protocol.Property{}, false

	case cmd&0xFF00 == protocol.CmdLabelBase:
		return d.label(cmd), true

	case cmd == protocol.CmdSettingsNotify:

	case cmd&0xFF0F == protocol.CmdPresetRead:
		p := int(cmd>>4) & 0x0F
		ack = protocol.Property{uint32(cmd)}
		copy(ack[1:], d.presets[p][:])
		return ack, true

	case cmd&0xFF0F == protocol.CmdPresetWrite:
		p := int(cmd>>4) & 0x0F
		copy(d.presets[p][:], req[1:])
		d.logDebug("preset stored", "preset", p)

	default:
		if idx, isRAM := cmd.IsRAMBlock(); isRAM {
			var block [protocol.RAMBlockWords]uint32
			copy(block[:], req[1:])
			d.ram[idx] = block
		}
	}

	return protocol.Property{uint32(cmd)}, true
}

// label packs the parameter name into the payload, four ASCII characters
// per word, most significant byte first.
func (d *Device) label(cmd protocol.Command) protocol.Property {
	ack := protocol.Property{uint32(cmd)}

	n := int(cmd & 0xFF)
	if n >= len(d.labels) {
		return ack
	}

	var text [4 * protocol.RAMBlockWords]byte
	copy(text[:], d.labels[n])
	for i := range protocol.RAMBlockWords {
		ack[1+i] = binary.BigEndian.Uint32(text[4*i:])
	}
	return ack
}

// Flash returns a copy of the flash image written since the last erase.
func (d *Device) Flash() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.flash...)
}

// Erased reports whether an erase was received.
func (d *Device) Erased() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.erased
}

// Finalized reports whether the flash write was finalized after the last
// erase.
func (d *Device) Finalized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finalized
}

// RAM returns the RAM properties page as a flat word slice, from block 0 up
// to the highest block written. Unwritten blocks read as zero.
func (d *Device) RAM() []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	highest := -1
	for idx := range d.ram {
		highest = max(highest, idx)
	}

	words := make([]uint32, (highest+1)*protocol.RAMBlockWords)
	for idx, block := range d.ram {
		copy(words[idx*protocol.RAMBlockWords:], block[:])
	}
	return words
}

// Preset returns the stored words of preset p.
func (d *Device) Preset(p int) [protocol.RAMBlockWords]uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presets[p&0x0F]
}

// Received returns every well-formed request in arrival order.
func (d *Device) Received() []protocol.Property {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocol.Property(nil), d.received...)
}

func (d *Device) logDebug(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Debug(msg, kv...)
	}
}
