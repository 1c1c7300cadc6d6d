// Package protocol implements the FlexFX property message format.
//
// Every exchange with a FlexFX device is a property: six 32-bit words, a
// command word followed by five payload words. A property travels as a single
// 50-byte MIDI system exclusive message:
//
//	[0xF0][48 nibble bytes][0xF7]
//
// Each word expands to eight bytes holding one nibble each, most significant
// nibble first. Payload bytes are therefore always in 0x00-0x0F and can never
// be mistaken for the 0xF0/0xF7 markers.
//
// # Encoding and Decoding
//
//	frame := protocol.Encode(protocol.Property{uint32(protocol.CmdFlashErase)})
//	prop := protocol.Decode(frame)
//
// Decode is total: a frame that is too short or has the wrong markers decodes
// to the zero record. Use Validate to find out why.
//
// # Commands
//
// The Command type enumerates the firmware opcodes. Some commands carry an
// index in their low bits:
//
//	protocol.RAMBlock(3)    // 0x4003
//	protocol.Label(7)       // 0x2007
//	protocol.PresetRead(2)  // 0x2120
//
// The device acknowledges a request by echoing its command word.
package protocol
