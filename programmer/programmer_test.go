package programmer

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-flexfx/protocol"
)

// MockDevice acknowledges every request except finalize by echoing it, or
// by calling reply when set.
type MockDevice struct {
	mu sync.Mutex

	sent    []protocol.Property
	pending [][]byte

	// noise is queued ahead of the ack for the request with that index
	noise map[int][][]byte

	silent  bool
	reply   func(protocol.Property) protocol.Property
	sendErr error
	recvErr error
}

func NewMockDevice() *MockDevice {
	return &MockDevice{noise: make(map[int][][]byte)}
}

func (d *MockDevice) Send(msg []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.sendErr != nil {
		return d.sendErr
	}

	req := protocol.Decode(msg)
	idx := len(d.sent)
	d.sent = append(d.sent, req)

	d.pending = append(d.pending, d.noise[idx]...)
	if d.silent || req.Command() == protocol.CmdFlashFinalize {
		return nil
	}

	ack := req
	if d.reply != nil {
		ack = d.reply(req)
	}
	d.pending = append(d.pending, protocol.Encode(ack))
	return nil
}

func (d *MockDevice) Receive() ([]byte, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.pending) > 0 {
		msg := d.pending[0]
		d.pending = d.pending[1:]
		return msg, true, nil
	}
	if d.recvErr != nil {
		return nil, false, d.recvErr
	}
	return nil, false, nil
}

func (d *MockDevice) Sent() []protocol.Property {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocol.Property(nil), d.sent...)
}

// Mock logger for testing
type MockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorMsgs = append(l.errorMsgs, msg)
}

type recordingMetrics struct {
	sent      int
	acked     int
	discarded []protocol.Command
}

func (m *recordingMetrics) FrameSent(protocol.Command)                  { m.sent++ }
func (m *recordingMetrics) AckReceived(protocol.Command, time.Duration) { m.acked++ }
func (m *recordingMetrics) ReplyDiscarded(_, got protocol.Command) {
	m.discarded = append(m.discarded, got)
}

func TestNew(t *testing.T) {
	device := NewMockDevice()

	prog := New(device,
		WithProgressCallback(func(Progress) {}),
		WithLogger(&MockLogger{}),
		WithAckTimeout(time.Second),
		WithPollInterval(0),
	)
	require.NotNil(t, prog)
	assert.Equal(t, device, prog.channel)
	assert.Equal(t, time.Second, prog.config.AckTimeout)
	assert.Zero(t, prog.config.PollInterval)

	assert.Panics(t, func() { New(nil) })
}

func TestBurn(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		wantChunks int
	}{
		{name: "empty image", size: 0, wantChunks: 0},
		{name: "one byte", size: 1, wantChunks: 1},
		{name: "exact chunk", size: 16, wantChunks: 1},
		{name: "one over", size: 17, wantChunks: 2},
		{name: "several chunks", size: 100, wantChunks: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			image := make([]byte, tt.size)
			for i := range image {
				image[i] = byte(i + 1)
			}

			device := NewMockDevice()
			prog := New(device)
			require.NoError(t, prog.Burn(context.Background(), image))

			sent := device.Sent()
			require.Len(t, sent, tt.wantChunks+2)
			assert.Equal(t, protocol.CmdFlashErase, sent[0].Command())
			assert.Equal(t, protocol.CmdFlashFinalize, sent[len(sent)-1].Command())

			written := []byte{}
			for _, rec := range sent[1 : len(sent)-1] {
				require.Equal(t, protocol.CmdFlashWrite, rec.Command())
				assert.Zero(t, rec[5])
				for _, w := range rec[1:5] {
					written = append(written, byte(w>>24), byte(w>>16), byte(w>>8), byte(w))
				}
			}
			require.Len(t, written, tt.wantChunks*protocol.FlashChunkSize)
			assert.Equal(t, image, written[:tt.size])
			assert.True(t, bytes.Equal(make([]byte, len(written)-tt.size), written[tt.size:]),
				"last chunk must be zero padded")
		})
	}
}

func TestBurnProgress(t *testing.T) {
	var phases []Phase
	var last Progress

	prog := New(NewMockDevice(), WithProgressCallback(func(p Progress) {
		phases = append(phases, p.Phase)
		last = p
	}))
	require.NoError(t, prog.Burn(context.Background(), make([]byte, 40)))

	assert.Equal(t, []Phase{
		PhaseErasing,
		PhaseWriting, PhaseWriting, PhaseWriting,
		PhaseFinalizing,
		PhaseComplete,
	}, phases)
	assert.Equal(t, 3, last.Current)
	assert.Equal(t, 3, last.Total)
	assert.Equal(t, 40, last.BytesWritten)
	assert.InDelta(t, 100.0, last.Percentage, 0.001)
}

func TestWriteFirmwareReaderError(t *testing.T) {
	readErr := errors.New("disk gone")
	prog := New(NewMockDevice())

	_, err := prog.WriteFirmware(context.Background(), &failingReader{err: readErr})
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
}

type failingReader struct{ err error }

func (r *failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestFinalizeDoesNotWait(t *testing.T) {
	device := NewMockDevice()
	device.silent = true

	prog := New(device)
	require.NoError(t, prog.Finalize(context.Background()))

	sent := device.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, protocol.Property{uint32(protocol.CmdFlashFinalize)}, sent[0])
}

func TestAwaitDiscardsUnrelatedReplies(t *testing.T) {
	device := NewMockDevice()
	device.noise[0] = [][]byte{
		protocol.Encode(protocol.Property{uint32(protocol.CmdSettingsNotify), 1}),
		{0xF0, 0x01, 0xF7},
		protocol.Encode(protocol.Property{uint32(protocol.Label(3)), 0x41424344}),
	}
	device.reply = func(req protocol.Property) protocol.Property {
		return protocol.Property{req[0], 0xCAFE}
	}

	metrics := &recordingMetrics{}
	logger := &MockLogger{}
	prog := New(device, WithMetrics(metrics), WithLogger(logger))

	reply, err := prog.WriteProperty(context.Background(), protocol.Property{uint32(protocol.CmdFlashErase)})
	require.NoError(t, err)
	assert.Equal(t, protocol.Property{uint32(protocol.CmdFlashErase), 0xCAFE}, reply)

	assert.Equal(t, []protocol.Command{
		protocol.CmdSettingsNotify,
		protocol.CmdNone,
		protocol.Label(3),
	}, metrics.discarded)
	assert.Equal(t, 1, metrics.sent)
	assert.Equal(t, 1, metrics.acked)
	assert.Len(t, logger.debugMsgs, 3)
}

func TestMalformedReplyNeverAcknowledgesCommandZero(t *testing.T) {
	device := NewMockDevice()
	device.silent = true
	device.noise[0] = [][]byte{
		{0xF0, 0x01, 0xF7},
		append(protocol.Encode(protocol.Property{}), 0x00)[1:],
	}

	metrics := &recordingMetrics{}
	prog := New(device, WithMetrics(metrics), WithAckTimeout(50*time.Millisecond))

	reply, err := prog.WriteProperty(context.Background(), protocol.Property{0, 1, 2, 3, 4, 5})
	require.Error(t, err)
	assert.True(t, reply.IsZero())

	var timeoutErr *AckTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, protocol.CmdNone, timeoutErr.Command)
	assert.Equal(t, 0, metrics.acked)
	assert.Len(t, metrics.discarded, 2)
}

func TestWellFormedZeroReplyAcknowledgesCommandZero(t *testing.T) {
	device := NewMockDevice()
	device.noise[0] = [][]byte{{0xF0, 0x01, 0xF7}}

	prog := New(device, WithAckTimeout(time.Second))

	reply, err := prog.WriteProperty(context.Background(), protocol.Property{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, protocol.Property{0, 1, 2, 3, 4, 5}, reply)
}

func TestWriteSamples(t *testing.T) {
	samples := make([]int32, 12)
	for i := range samples {
		samples[i] = int32(i+1) * -1000
	}

	device := NewMockDevice()
	prog := New(device)

	blocks, err := prog.WriteSamples(context.Background(), samples)
	require.NoError(t, err)
	assert.Equal(t, 3, blocks)

	sent := device.Sent()
	require.Len(t, sent, 3)
	for i, rec := range sent {
		assert.Equal(t, protocol.RAMBlock(i), rec.Command())
	}
	assert.Equal(t, uint32(0x4000), sent[0][0])
	assert.Equal(t, uint32(0x4002), sent[2][0])

	assert.Equal(t, uint32(samples[0]), sent[0][1])
	assert.Equal(t, uint32(samples[9]), sent[1][5])
	assert.Equal(t, protocol.Property{
		0x4002, uint32(samples[10]), uint32(samples[11]), 0, 0, 0,
	}, sent[2])
}

func TestWriteSamplesStopsAtBlockLimit(t *testing.T) {
	samples := make([]int32, protocol.MaxRAMBlocks*protocol.RAMBlockWords+7)

	device := NewMockDevice()
	logger := &MockLogger{}
	prog := New(device, WithLogger(logger))

	blocks, err := prog.WriteSamples(context.Background(), samples)
	require.NoError(t, err)
	assert.Equal(t, protocol.MaxRAMBlocks, blocks)

	sent := device.Sent()
	require.Len(t, sent, protocol.MaxRAMBlocks)
	for _, rec := range sent {
		idx, ok := rec.Command().IsRAMBlock()
		require.True(t, ok)
		require.Less(t, idx, protocol.MaxRAMBlocks)
	}
	assert.Contains(t, logger.infoMsgs, "data exceeds RAM properties page, truncating")
}

func TestWriteRAMData(t *testing.T) {
	data := []byte{
		0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C,
		0x0D, 0x0E, 0x0F, 0x10,
		0x11, 0x12, 0x13, 0x14,
		0xAA,
	}

	device := NewMockDevice()
	prog := New(device)

	blocks, err := prog.WriteRAMData(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, blocks)

	sent := device.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, protocol.Property{0x4000, 0x01020304, 0x05060708, 0x090A0B0C, 0x0D0E0F10, 0x11121314}, sent[0])
	assert.Equal(t, protocol.Property{0x4001, 0xAA000000}, sent[1])
}

func TestWriteProperties(t *testing.T) {
	props := []protocol.Property{
		{uint32(protocol.PresetWrite(2)), 1, 2, 3, 4, 5},
		{uint32(protocol.CmdSettingsNotify)},
		{0x8001, 0xFFFFFFFF},
	}

	device := NewMockDevice()
	var progress []Progress
	prog := New(device, WithProgressCallback(func(p Progress) {
		progress = append(progress, p)
	}))

	require.NoError(t, prog.WriteProperties(context.Background(), props))
	assert.Equal(t, props, device.Sent())

	require.Len(t, progress, 3)
	assert.Equal(t, props[2], progress[2].Record)
	assert.Equal(t, PhaseSendingProperties, progress[2].Phase)
}

func TestWritePropertiesStepError(t *testing.T) {
	device := NewMockDevice()
	device.recvErr = errors.New("port unplugged")
	device.silent = true

	prog := New(device)
	err := prog.WriteProperties(context.Background(), []protocol.Property{{0x1234}})
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, PhaseSendingProperties, stepErr.Phase)
	assert.Equal(t, 0, stepErr.Index)
	assert.ErrorIs(t, err, device.recvErr)
}

func TestSendError(t *testing.T) {
	device := NewMockDevice()
	device.sendErr = errors.New("write failed")

	prog := New(device)
	err := prog.Erase(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, device.sendErr)
}

func TestAckTimeout(t *testing.T) {
	device := NewMockDevice()
	device.silent = true

	logger := &MockLogger{}
	prog := New(device, WithAckTimeout(20*time.Millisecond), WithLogger(logger))

	start := time.Now()
	_, err := prog.WriteProperty(context.Background(), protocol.Property{uint32(protocol.Label(7))})
	require.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	var timeoutErr *AckTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, protocol.Label(7), timeoutErr.Command)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEmpty(t, logger.errorMsgs)

	// no retry
	assert.Len(t, device.Sent(), 1)
}

func TestAwaitCancellation(t *testing.T) {
	device := NewMockDevice()
	device.silent = true

	prog := New(device)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	err := prog.Erase(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var timeoutErr *AckTimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	device := NewMockDevice()
	prog := New(device)

	_, err := prog.WriteSamples(ctx, make([]int32, 10))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, device.Sent())
}
