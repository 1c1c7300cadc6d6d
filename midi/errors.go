package midi

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a closed Port
	ErrClosed = errors.New("port closed")

	// ErrUSBUnsupported is returned when USB enumeration is not available
	// on this platform or build
	ErrUSBUnsupported = errors.New("usb enumeration not supported on this platform")
)

// ChannelError wraps a transport failure on a port.
type ChannelError struct {
	Port string
	Op   string
	Err  error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Port, e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// EndpointNotFoundError indicates that a port index does not name a known
// endpoint.
type EndpointNotFoundError struct {
	Index int
	Count int
}

func (e *EndpointNotFoundError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("port %d not found: no MIDI endpoints available", e.Index)
	}
	return fmt.Sprintf("port %d not found: valid range is 0-%d", e.Index, e.Count-1)
}
