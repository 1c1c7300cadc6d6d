package protocol

import (
	"encoding/binary"
	"fmt"
)

// Property is a single device property record: a command word followed by
// five payload words. Unused payload words are zero.
type Property [WordCount]uint32

// NewProperty builds a record from a command and up to five payload words.
// Missing payload words are zero-filled; extra words are an error.
func NewProperty(cmd Command, payload ...uint32) (Property, error) {
	var p Property
	if len(payload) > PayloadWords {
		return p, fmt.Errorf("payload has %d words, maximum is %d", len(payload), PayloadWords)
	}
	p[0] = uint32(cmd)
	copy(p[1:], payload)
	return p, nil
}

// FlashChunk builds a flash write record from up to 16 bytes of firmware.
// Short chunks are zero-padded. Bytes are packed big-endian, four per word.
func FlashChunk(chunk []byte) Property {
	var buf [FlashChunkSize]byte
	copy(buf[:], chunk)

	p := Property{uint32(CmdFlashWrite)}
	for i := 0; i < FlashChunkWords; i++ {
		p[1+i] = binary.BigEndian.Uint32(buf[4*i:])
	}
	return p
}

// Command returns the record's command word.
func (p Property) Command() Command {
	return Command(p[0])
}

// Payload returns the five payload words.
func (p Property) Payload() []uint32 {
	return p[1:]
}

// IsZero reports whether every word is zero, which is what malformed frames
// decode to.
func (p Property) IsZero() bool {
	return p == Property{}
}

// String renders the record as six zero-padded hex words.
func (p Property) String() string {
	return fmt.Sprintf("%08x %08x %08x %08x %08x %08x", p[0], p[1], p[2], p[3], p[4], p[5])
}
