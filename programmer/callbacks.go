package programmer

import (
	"time"

	"github.com/moffa90/go-flexfx/protocol"
)

// Phase identifies the step a transfer is in.
type Phase string

const (
	PhaseErasing           Phase = "erasing"
	PhaseWriting           Phase = "writing"
	PhaseFinalizing        Phase = "finalizing"
	PhaseSendingSamples    Phase = "sending-samples"
	PhaseSendingRAMData    Phase = "sending-ram-data"
	PhaseSendingProperties Phase = "sending-properties"
	PhaseSendingProperty   Phase = "sending-property"
	PhaseComplete          Phase = "complete"
)

// Progress contains information about the transfer progress.
// Passed to ProgressCallback after every acknowledged step.
type Progress struct {
	// Phase is the current transfer phase
	Phase Phase

	// Current is the number of records acknowledged so far in this phase
	Current int

	// Total is the number of records expected in this phase, or 0 if unknown
	Total int

	// Percentage is the completion percentage (0.0 to 100.0), or 0 if Total
	// is unknown
	Percentage float64

	// BytesWritten is the number of source bytes acknowledged so far
	BytesWritten int

	// Record is the record that was just acknowledged
	Record protocol.Property

	// ElapsedTime is the time elapsed since the operation started
	ElapsedTime time.Duration
}

// ProgressCallback is called during transfers to report progress.
// Implementations should return quickly; the next request is not sent until
// the callback returns.
//
// Example:
//
//	prog := programmer.New(port,
//	    programmer.WithProgressCallback(func(p programmer.Progress) {
//	        fmt.Printf("[%s] %d/%d\n", p.Phase, p.Current, p.Total)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the
// programmer. This allows integration with any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Metrics receives protocol events. Implementations must be safe to call
// from the goroutine driving the programmer.
type Metrics interface {
	// FrameSent is called after a request frame is written
	FrameSent(cmd protocol.Command)

	// AckReceived is called when the matching reply arrives
	AckReceived(cmd protocol.Command, wait time.Duration)

	// ReplyDiscarded is called for every reply that did not match
	ReplyDiscarded(expected, got protocol.Command)
}

type noopMetrics struct{}

func (noopMetrics) FrameSent(protocol.Command)                       {}
func (noopMetrics) AckReceived(protocol.Command, time.Duration)      {}
func (noopMetrics) ReplyDiscarded(protocol.Command, protocol.Command) {}
