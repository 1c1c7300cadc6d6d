package protocol

import (
	"errors"
	"fmt"
)

// FrameReason classifies a malformed frame.
type FrameReason int

const (
	// ReasonShort means the frame is shorter than FrameSize
	ReasonShort FrameReason = iota

	// ReasonStartMarker means the first byte is not SysexStart
	ReasonStartMarker

	// ReasonEndMarker means the byte at FrameSize-1 is not SysexEnd
	ReasonEndMarker
)

// FrameError describes a frame that cannot be decoded.
// Decode never returns it; Validate does, for diagnostics.
type FrameError struct {
	// Reason is the first check the frame failed
	Reason FrameReason

	// Length is the length of the offending frame
	Length int

	// Got is the offending marker byte (for marker reasons)
	Got byte
}

func (e *FrameError) Error() string {
	switch e.Reason {
	case ReasonShort:
		return fmt.Sprintf("frame too short: got %d bytes, expected %d", e.Length, FrameSize)
	case ReasonStartMarker:
		return fmt.Sprintf("invalid start marker: got 0x%02X, expected 0x%02X", e.Got, SysexStart)
	case ReasonEndMarker:
		return fmt.Sprintf("invalid end marker at position %d: got 0x%02X, expected 0x%02X",
			FrameSize-1, e.Got, SysexEnd)
	default:
		return "malformed frame"
	}
}

// IsFrameError returns true if the error is a FrameError.
func IsFrameError(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe)
}
