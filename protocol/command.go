package protocol

import "fmt"

// RAMBlock returns the command that writes RAM properties block index.
func RAMBlock(index int) Command {
	return CmdRAMBlockBase + Command(index)
}

// Label returns the command that reads the label of parameter n.
func Label(n int) Command {
	return CmdLabelBase + Command(n&0xFF)
}

// PresetRead returns the command that reads the values of preset p.
func PresetRead(p int) Command {
	return CmdPresetRead | Command(p&0x0F)<<4
}

// PresetWrite returns the command that writes the values of preset p.
func PresetWrite(p int) Command {
	return CmdPresetWrite | Command(p&0x0F)<<4
}

// IsRAMBlock reports whether c addresses a RAM properties block, and which one.
func (c Command) IsRAMBlock() (int, bool) {
	if c < CmdRAMBlockBase || c >= CmdRAMBlockBase+MaxRAMBlocks {
		return 0, false
	}
	return int(c - CmdRAMBlockBase), true
}

// String returns a human-readable name for the command.
func (c Command) String() string {
	switch c {
	case CmdNone:
		return "none"
	case CmdFlashErase:
		return "flash-erase"
	case CmdFlashWrite:
		return "flash-write"
	case CmdFlashFinalize:
		return "flash-finalize"
	case CmdUploadStart:
		return "upload-start"
	case CmdUploadContinue:
		return "upload-continue"
	case CmdSettingsNotify:
		return "settings-notify"
	}

	if idx, ok := c.IsRAMBlock(); ok {
		return fmt.Sprintf("ram-block[%d]", idx)
	}
	if c&0xFF00 == CmdLabelBase {
		return fmt.Sprintf("label[%d]", uint32(c&0xFF))
	}
	if c&0xFF0F == CmdPresetRead {
		return fmt.Sprintf("preset-read[%d]", uint32(c>>4)&0x0F)
	}
	if c&0xFF0F == CmdPresetWrite {
		return fmt.Sprintf("preset-write[%d]", uint32(c>>4)&0x0F)
	}
	return fmt.Sprintf("0x%04X", uint32(c))
}
