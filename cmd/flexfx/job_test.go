package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-flexfx/internal/simulator"
	"github.com/moffa90/go-flexfx/programmer"
	"github.com/moffa90/go-flexfx/protocol"
)

func TestParseJob(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    job
		wantErr bool
	}{
		{name: "list", args: nil, want: job{Kind: jobList}},
		{name: "firmware", args: []string{"1", "fw.bin"}, want: job{Kind: jobFirmware, Port: 1, Path: "fw.bin"}},
		{name: "ram data", args: []string{"0", "table.dat"}, want: job{Kind: jobRAMData, Path: "table.dat"}},
		{name: "samples upper case", args: []string{"2", "IR.WAV"}, want: job{Kind: jobSamples, Port: 2, Path: "IR.WAV"}},
		{name: "properties", args: []string{"0", "preset.txt"}, want: job{Kind: jobProperties, Path: "preset.txt"}},
		{
			name: "single property",
			args: []string{"3", "2101", "1", "2", "3", "4", "0x5"},
			want: job{Kind: jobProperty, Port: 3, Record: protocol.Property{0x2101, 1, 2, 3, 4, 5}},
		},
		{name: "unknown suffix", args: []string{"0", "fw.hex"}, wantErr: true},
		{name: "bad port", args: []string{"x", "fw.bin"}, wantErr: true},
		{name: "negative port", args: []string{"-1", "fw.bin"}, wantErr: true},
		{name: "bad hex", args: []string{"0", "2101", "zz", "0", "0", "0", "0"}, wantErr: true},
		{name: "one argument", args: []string{"0"}, wantErr: true},
		{name: "too few words", args: []string{"0", "1", "2", "3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseJob(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunJobFirmware(t *testing.T) {
	image := bytes.Repeat([]byte{0xDE, 0xAD, 0xBE, 0xEF}, 9)
	path := writeFile(t, "fw.bin", image)

	dev := simulator.New()
	var out bytes.Buffer
	err := runJob(context.Background(), programmer.New(dev), &out, job{Kind: jobFirmware, Path: path})
	require.NoError(t, err)

	assert.True(t, dev.Finalized())
	assert.Equal(t, image, dev.Flash()[:len(image)])
	assert.Contains(t, out.String(), "Burned 36 bytes")
}

func TestRunJobRAMData(t *testing.T) {
	path := writeFile(t, "table.dat", []byte{0, 0, 0, 1, 0, 0, 0, 2})

	dev := simulator.New()
	var out bytes.Buffer
	require.NoError(t, runJob(context.Background(), programmer.New(dev), &out, job{Kind: jobRAMData, Path: path}))

	assert.Equal(t, []uint32{1, 2, 0, 0, 0}, dev.RAM())
	assert.Contains(t, out.String(), "Wrote 1 RAM blocks")
}

func TestRunJobSamples(t *testing.T) {
	path := writeFile(t, "ir.wav", monoWave16([]int16{0x4000, -0x4000, 1}))

	dev := simulator.New()
	var out bytes.Buffer
	require.NoError(t, runJob(context.Background(), programmer.New(dev), &out, job{Kind: jobSamples, Path: path}))

	assert.Equal(t, []uint32{0x40000000, 0xC0000000, 0x00010000, 0, 0}, dev.RAM())
	assert.Contains(t, out.String(), "Wrote 3 samples (48000 Hz, 16-bit) in 1 RAM blocks")
}

func TestRunJobProperties(t *testing.T) {
	path := writeFile(t, "preset.txt", []byte(
		"2131 1 2 3 4 5\n"+
			"2141 a b c d e\n"+
			"2151 1 2\n"+
			"2161 9 9 9 9 9\n"))

	dev := simulator.New()
	var out bytes.Buffer
	require.NoError(t, runJob(context.Background(), programmer.New(dev), &out, job{Kind: jobProperties, Path: path}))

	assert.Equal(t, [5]uint32{1, 2, 3, 4, 5}, dev.Preset(3))
	assert.Equal(t, [5]uint32{0xa, 0xb, 0xc, 0xd, 0xe}, dev.Preset(4))
	assert.Equal(t, [5]uint32{}, dev.Preset(6), "input stops at the short line")
	assert.Contains(t, out.String(), "Wrote 2 properties")
	assert.Contains(t, out.String(), "Input ended early")
}

func TestRunJobProperty(t *testing.T) {
	dev := simulator.New(simulator.WithLabels("Volume"))
	var out bytes.Buffer

	rec := protocol.Property{uint32(protocol.Label(0))}
	require.NoError(t, runJob(context.Background(), programmer.New(dev), &out, job{Kind: jobProperty, Record: rec}))

	assert.Equal(t,
		"00002000 00000000 00000000 00000000 00000000 00000000\n"+
			"00002000 566f6c75 6d650000 00000000 00000000 00000000\n",
		out.String())
}

func TestRunJobPropertiesEcho(t *testing.T) {
	path := writeFile(t, "preset.txt", []byte(
		"2131 1 2 3 4 5\n"+
			"2102 0 0 0 0 0\n"))

	var out bytes.Buffer
	view := newProgressView(io.Discard, &out, false)
	prog := programmer.New(simulator.New(), programmer.WithProgressCallback(view.Update))

	require.NoError(t, runJob(context.Background(), prog, &out, job{Kind: jobProperties, Path: path}))
	view.Finish(nil)

	assert.Equal(t,
		"00002131 00000001 00000002 00000003 00000004 00000005\n"+
			"00002102 00000000 00000000 00000000 00000000 00000000\n"+
			"Wrote 2 properties from "+path+"\n",
		out.String())
}

func TestProgressViewEchoOnlyWithoutBars(t *testing.T) {
	var out bytes.Buffer
	view := newProgressView(io.Discard, &out, false)

	view.Update(programmer.Progress{Phase: programmer.PhaseWriting, Current: 1, Total: 2})
	view.Update(programmer.Progress{Phase: programmer.PhaseSendingProperties, Current: 1, Total: 1,
		Record: protocol.Property{0x8001, 0xFFFFFFFF}})
	view.Finish(nil)

	assert.Equal(t, "00008001 ffffffff 00000000 00000000 00000000 00000000\n", out.String())
}

func TestRunJobList(t *testing.T) {
	err := runJob(context.Background(), programmer.New(simulator.New()), &bytes.Buffer{}, job{Kind: jobList})
	assert.Error(t, err)
}

// monoWave16 builds a 48 kHz mono 16-bit PCM file.
func monoWave16(samples []int16) []byte {
	var data bytes.Buffer
	for _, s := range samples {
		_ = binary.Write(&data, binary.LittleEndian, s)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))     // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))     // channels
	_ = binary.Write(&buf, binary.LittleEndian, uint32(48000)) // sample rate
	_ = binary.Write(&buf, binary.LittleEndian, uint32(96000)) // byte rate
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))     // block align
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))    // bits

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())
	return buf.Bytes()
}
