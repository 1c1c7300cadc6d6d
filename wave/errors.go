package wave

import (
	"errors"
	"fmt"
)

var (
	// ErrNotWave is returned when the RIFF/WAVE signature is missing
	ErrNotWave = errors.New("unknown file format: not a RIFF/WAVE file")

	// ErrNoData is returned when the file ends before a data chunk
	ErrNoData = errors.New("no data chunk found")
)

// UnsupportedFormatError indicates a sample encoding the reader cannot decode.
type UnsupportedFormatError struct {
	Format   uint16
	BitDepth uint16
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported sample format: format tag 0x%04X, %d bits per sample (want PCM at 8, 16, 24 or 32 bits)",
		e.Format, e.BitDepth)
}
