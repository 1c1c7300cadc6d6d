package programmer

// Channel is a duplex message channel to one device.
//
// Send transmits one complete frame. Receive is a non-blocking poll: it
// returns ok == false when no message is pending. midi.Port implements
// Channel; tests and the simulator provide their own.
type Channel interface {
	Send(msg []byte) error
	Receive() (msg []byte, ok bool, err error)
}
