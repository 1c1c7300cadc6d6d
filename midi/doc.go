// Package midi provides the message channel used to talk to FlexFX devices.
//
// A Port wraps any duplex byte stream (an ALSA raw MIDI node, a serial port,
// or a pipe in tests) and exposes it as whole messages:
//
//	port, err := midi.Open(ep)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	err = port.Send(frame)
//	msg, ok, err := port.Receive() // non-blocking
//
// Inbound bytes are split into system exclusive messages by a Splitter;
// everything else on the wire is ignored.
//
// # Endpoints
//
// Devices are addressed by a numeric index, assigned by Discover over the
// configured endpoints followed by raw MIDI nodes found on the system.
package midi
