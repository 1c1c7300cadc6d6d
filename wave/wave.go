package wave

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

// Format tags accepted in the fmt chunk.
const (
	// FormatPCM is integer PCM
	FormatPCM = 0x0001

	// FormatExtensible wraps PCM with a sub-format GUID
	FormatExtensible = 0xFFFE
)

// Wave holds decoded sample data from a WAVE file.
type Wave struct {
	// SampleRate is the sample rate in Hz
	SampleRate uint32

	// Channels is the channel count in the source file
	Channels uint16

	// BitDepth is the source sample width in bits
	BitDepth uint16

	// Samples are the first channel's samples, left-justified to 32 bits
	// so full scale is the full int32 range regardless of source width
	Samples []int32
}

// Parse reads a WAVE file from the given path.
func Parse(path string) (*Wave, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader reads WAVE data from any io.Reader. Readers that cannot seek
// are buffered in memory first.
//
// Only integer PCM at 8, 16, 24 or 32 bits is supported. Unknown chunks are
// skipped. For multi-channel files only the first channel is returned.
func ParseReader(r io.Reader) (*Wave, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	if err := checkSignature(rs); err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(rs)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fmt chunk: %w", err)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return nil, fmt.Errorf("no valid fmt chunk before the data")
	}
	if err := checkFormat(dec.WavAudioFormat, dec.BitDepth); err != nil {
		return nil, err
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read data chunk: %w", err)
	}

	// A partial trailing frame is dropped.
	channels := int(dec.NumChans)
	frames := dec.PCMSize / (channels * int(dec.BitDepth/8))
	frames = min(frames, len(buf.Data)/channels)

	w := &Wave{
		SampleRate: dec.SampleRate,
		Channels:   dec.NumChans,
		BitDepth:   dec.BitDepth,
		Samples:    make([]int32, frames),
	}
	for i := range w.Samples {
		w.Samples[i] = leftJustify(buf.Data[i*channels], buf.SourceBitDepth)
	}
	return w, nil
}

// checkSignature verifies the RIFF/WAVE header and rewinds rs.
func checkSignature(rs io.ReadSeeker) error {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	var hdr [12]byte
	if _, err := io.ReadFull(rs, hdr[:]); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if !bytes.Equal(hdr[0:4], []byte("RIFF")) || !bytes.Equal(hdr[8:12], []byte("WAVE")) {
		return ErrNotWave
	}

	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind: %w", err)
	}
	return nil
}

func checkFormat(format, bits uint16) error {
	if format != FormatPCM && format != FormatExtensible {
		return &UnsupportedFormatError{Format: format, BitDepth: bits}
	}
	switch bits {
	case 8, 16, 24, 32:
	default:
		return &UnsupportedFormatError{Format: format, BitDepth: bits}
	}
	return nil
}

// leftJustify scales a decoded sample to the full int32 range. The decoder
// returns 8-bit data unsigned and wider widths sign-extended.
func leftJustify(v, bits int) int32 {
	switch bits {
	case 8:
		return int32(int8(uint8(v)-0x80)) << 24
	case 16:
		return int32(v) << 16
	case 24:
		return int32(v) << 8
	}
	return int32(v)
}
