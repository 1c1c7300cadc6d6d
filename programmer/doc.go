// Package programmer implements the FlexFX property transfer protocol.
//
// A Programmer sends one property record at a time over a Channel and blocks
// until the device echoes the record's command word. Replies carrying any
// other command are discarded. Nothing is retried.
//
// Basic usage:
//
//	port, err := midi.Open(ep)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	prog := programmer.New(port)
//	if err := prog.Burn(ctx, image); err != nil {
//	    log.Fatal(err)
//	}
//
// The supported flows are:
//
//   - Burn: erase, write 16-byte firmware chunks, finalize
//   - WriteSamples / WriteRAMData: fill the RAM properties page
//   - WriteProperties: send a batch of records
//   - WriteProperty: send one record and return the device's reply
//
// By default a wait for an acknowledgement never ends on its own; use
// context cancellation or WithAckTimeout to bound it.
package programmer
