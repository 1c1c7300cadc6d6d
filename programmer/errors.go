package programmer

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-flexfx/protocol"
)

// AckTimeoutError indicates that the device did not acknowledge a request
// within the configured ack timeout.
type AckTimeoutError struct {
	Command protocol.Command
	Timeout time.Duration
}

func (e *AckTimeoutError) Error() string {
	return fmt.Sprintf("no acknowledgement for %s (0x%04X) within %s",
		e.Command, uint32(e.Command), e.Timeout)
}

func (e *AckTimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// StepError records which record of a sequence failed.
type StepError struct {
	Phase Phase
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: record %d: %v", e.Phase, e.Index, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
