package protocol

// Frame structure constants for the property sysex message.
const (
	// SysexStart is the frame start marker (0xF0)
	SysexStart = 0xF0

	// SysexEnd is the frame end marker (0xF7)
	SysexEnd = 0xF7

	// WordCount is the number of 32-bit words in a property record
	WordCount = 6

	// PayloadWords is the number of payload words following the command word
	PayloadWords = WordCount - 1

	// NibblesPerWord is the number of 4-bit nibbles a 32-bit word expands to
	NibblesPerWord = 8

	// FrameSize is the exact size of a property frame in bytes:
	// START(1) + WORDS(6*8) + END(1)
	FrameSize = 1 + WordCount*NibblesPerWord + 1

	// NibbleMask selects the low nibble carried by each payload byte
	NibbleMask = 0x0F
)

// Command is the word-0 opcode of a property record.
// The device echoes it back unchanged to acknowledge a request.
type Command uint32

// Firmware-defined opcodes. These values are part of the device contract and
// must match the firmware exactly.
const (
	// CmdNone is the command word of the zero record, which is also what a
	// malformed frame decodes to.
	CmdNone Command = 0x0000

	// CmdFlashErase erases the boot partition
	CmdFlashErase Command = 0x1401

	// CmdFlashWrite writes one 16-byte firmware chunk
	CmdFlashWrite Command = 0x1402

	// CmdFlashFinalize closes a firmware write sequence (not acknowledged)
	CmdFlashFinalize Command = 0x1403

	// CmdUploadStart resets the device's upload offset
	CmdUploadStart Command = 0x1501

	// CmdUploadContinue appends five words at the device's upload offset
	CmdUploadContinue Command = 0x1502

	// CmdLabelBase reads the text label of parameter N (0x2000 + N)
	CmdLabelBase Command = 0x2000

	// CmdPresetRead reads preset P parameter values (0x2100 | P<<4)
	CmdPresetRead Command = 0x2100

	// CmdPresetWrite writes preset P parameter values (0x2101 | P<<4)
	CmdPresetWrite Command = 0x2101

	// CmdSettingsNotify is sent by the device when front panel settings change
	CmdSettingsNotify Command = 0x2102

	// CmdRAMBlockBase writes RAM properties block N (0x4000 + N)
	CmdRAMBlockBase Command = 0x4000
)

const (
	// FlashChunkSize is the number of firmware bytes carried by one write record
	FlashChunkSize = 16

	// FlashChunkWords is the number of payload words used by a write record
	FlashChunkWords = FlashChunkSize / 4

	// RAMBlockWords is the number of payload words used by a RAM block record
	RAMBlockWords = PayloadWords

	// MaxRAMBlocks bounds the RAM block index; blocks at or above it are
	// outside the device's addressable range.
	MaxRAMBlocks = 0xCCC

	// MaxLabels is the number of addressable parameter labels
	MaxLabels = 0x100

	// MaxPresets is the number of addressable presets
	MaxPresets = 16
)
