package programmer

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/moffa90/go-flexfx/protocol"
)

// Programmer drives the property transfer protocol against one device.
// Every request is acknowledged before the next one is sent.
//
// Programmer is safe for concurrent use: operations are serialized, so two
// callers never interleave requests on the channel.
type Programmer struct {
	channel Channel
	config  Config

	mu sync.Mutex
}

// New creates a new Programmer over the given channel.
// The caller keeps ownership of the channel and must close it.
//
// Example:
//
//	port, _ := midi.Open(ep)
//	defer port.Close()
//	prog := programmer.New(port,
//	    programmer.WithProgressCallback(progressFunc),
//	    programmer.WithAckTimeout(10*time.Second),
//	)
func New(channel Channel, opts ...Option) *Programmer {
	if channel == nil {
		panic("channel cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		channel: channel,
		config:  cfg,
	}
}

// Burn performs the complete firmware update sequence:
//  1. Erase the boot partition and wait for the device to confirm
//  2. Write the image in 16-byte chunks, each acknowledged
//  3. Send the finalize record (not acknowledged)
//
// Example:
//
//	image, _ := os.ReadFile("flexfx.bin")
//	err := prog.Burn(context.Background(), image)
func (p *Programmer) Burn(ctx context.Context, image []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	startTime := time.Now()
	totalChunks := (len(image) + protocol.FlashChunkSize - 1) / protocol.FlashChunkSize

	// Phase 1: Erase
	p.reportProgress(Progress{
		Phase: PhaseErasing,
		Total: totalChunks,
	})
	if err := p.erase(ctx); err != nil {
		return err
	}

	// Phase 2: Write
	chunks, err := p.writeFirmware(ctx, bytes.NewReader(image), totalChunks, startTime)
	if err != nil {
		return err
	}

	// Phase 3: Finalize
	p.reportProgress(Progress{
		Phase:        PhaseFinalizing,
		Current:      chunks,
		Total:        totalChunks,
		Percentage:   100,
		BytesWritten: len(image),
		ElapsedTime:  time.Since(startTime),
	})
	if err := p.finalize(); err != nil {
		return err
	}

	p.reportProgress(Progress{
		Phase:        PhaseComplete,
		Current:      chunks,
		Total:        totalChunks,
		Percentage:   100,
		BytesWritten: len(image),
		ElapsedTime:  time.Since(startTime),
	})

	p.logInfo("firmware burn complete",
		"chunks", chunks,
		"bytes", len(image),
		"elapsed", time.Since(startTime).String(),
	)
	return nil
}

// Erase erases the boot partition and blocks until the device confirms.
func (p *Programmer) Erase(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.erase(ctx)
}

// WriteFirmware streams a firmware image in 16-byte chunks, zero-padding the
// last one, waiting for each chunk to be acknowledged. It does not erase or
// finalize; see Burn. Returns the number of chunks written.
func (p *Programmer) WriteFirmware(ctx context.Context, r io.Reader) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeFirmware(ctx, r, 0, time.Now())
}

// Finalize sends the flash finalize record. The device does not acknowledge
// it, so Finalize returns as soon as the frame is written.
func (p *Programmer) Finalize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}
	return p.finalize()
}

// WriteSamples writes audio samples to the RAM properties page. Samples are
// sent five per block, the last block zero-padded, each block addressed by
// its index. Writing stops at protocol.MaxRAMBlocks blocks; samples beyond
// that are not sent. Returns the number of blocks written.
func (p *Programmer) WriteSamples(ctx context.Context, samples []int32) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	words := make([]uint32, len(samples))
	for i, s := range samples {
		words[i] = uint32(s)
	}
	return p.writeRAMBlocks(ctx, words, PhaseSendingSamples)
}

// WriteRAMData writes raw bytes to the RAM properties page. The data is
// packed big-endian into 32-bit words (the last word zero-padded) and sent
// like WriteSamples. Returns the number of blocks written.
func (p *Programmer) WriteRAMData(ctx context.Context, r io.Reader) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read RAM data: %w", err)
	}

	padded := make([]byte, (len(data)+3)/4*4)
	copy(padded, data)

	words := make([]uint32, len(padded)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(padded[4*i:])
	}
	return p.writeRAMBlocks(ctx, words, PhaseSendingRAMData)
}

// WriteProperties sends each record in order, waiting for the device to
// acknowledge one before sending the next.
func (p *Programmer) WriteProperties(ctx context.Context, props []protocol.Property) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	startTime := time.Now()
	for i, prop := range props {
		if _, err := p.transact(ctx, prop); err != nil {
			return &StepError{Phase: PhaseSendingProperties, Index: i, Err: err}
		}

		p.reportProgress(Progress{
			Phase:       PhaseSendingProperties,
			Current:     i + 1,
			Total:       len(props),
			Percentage:  percent(i+1, len(props)),
			Record:      prop,
			ElapsedTime: time.Since(startTime),
		})
	}

	p.logInfo("properties written", "count", len(props), "elapsed", time.Since(startTime).String())
	return nil
}

// WriteProperty sends a single record and returns the device's matching
// reply. Read-style commands (labels, presets) carry their result in the
// reply payload.
func (p *Programmer) WriteProperty(ctx context.Context, prop protocol.Property) (protocol.Property, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	startTime := time.Now()
	reply, err := p.transact(ctx, prop)
	if err != nil {
		return protocol.Property{}, err
	}

	p.reportProgress(Progress{
		Phase:       PhaseSendingProperty,
		Current:     1,
		Total:       1,
		Percentage:  100,
		Record:      prop,
		ElapsedTime: time.Since(startTime),
	})
	return reply, nil
}

func (p *Programmer) erase(ctx context.Context) error {
	rec := protocol.Property{uint32(protocol.CmdFlashErase)}
	if _, err := p.transact(ctx, rec); err != nil {
		return fmt.Errorf("erase: %w", err)
	}
	p.logDebug("flash erased")
	return nil
}

func (p *Programmer) finalize() error {
	rec := protocol.Property{uint32(protocol.CmdFlashFinalize)}
	if err := p.send(rec); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	return nil
}

// writeFirmware sends r in flash chunks. total is used for progress only and
// may be zero when the image size is unknown.
func (p *Programmer) writeFirmware(ctx context.Context, r io.Reader, total int, startTime time.Time) (int, error) {
	buf := make([]byte, protocol.FlashChunkSize)
	chunks, bytesWritten := 0, 0

	for {
		if err := ctx.Err(); err != nil {
			return chunks, fmt.Errorf("cancelled: %w", err)
		}

		n, readErr := io.ReadFull(r, buf)
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil && !errors.Is(readErr, io.ErrUnexpectedEOF) {
			return chunks, fmt.Errorf("read firmware: %w", readErr)
		}

		rec := protocol.FlashChunk(buf[:n])
		if _, err := p.transact(ctx, rec); err != nil {
			return chunks, &StepError{Phase: PhaseWriting, Index: chunks, Err: err}
		}

		chunks++
		bytesWritten += n
		p.reportProgress(Progress{
			Phase:        PhaseWriting,
			Current:      chunks,
			Total:        total,
			Percentage:   percent(chunks, total),
			BytesWritten: bytesWritten,
			Record:       rec,
			ElapsedTime:  time.Since(startTime),
		})

		if readErr != nil {
			break
		}
	}

	p.logDebug("firmware written", "chunks", chunks, "bytes", bytesWritten)
	return chunks, nil
}

// writeRAMBlocks sends words five per block, addressed RAMBlock(0),
// RAMBlock(1), ... and never at or beyond MaxRAMBlocks.
func (p *Programmer) writeRAMBlocks(ctx context.Context, words []uint32, phase Phase) (int, error) {
	startTime := time.Now()

	total := (len(words) + protocol.RAMBlockWords - 1) / protocol.RAMBlockWords
	if total > protocol.MaxRAMBlocks {
		p.logInfo("data exceeds RAM properties page, truncating",
			"blocks", total,
			"limit", protocol.MaxRAMBlocks,
		)
		total = protocol.MaxRAMBlocks
	}

	for index := 0; index < total; index++ {
		if err := ctx.Err(); err != nil {
			return index, fmt.Errorf("cancelled: %w", err)
		}

		lo := index * protocol.RAMBlockWords
		hi := min(lo+protocol.RAMBlockWords, len(words))

		rec, err := protocol.NewProperty(protocol.RAMBlock(index), words[lo:hi]...)
		if err != nil {
			return index, err
		}
		if _, err := p.transact(ctx, rec); err != nil {
			return index, &StepError{Phase: phase, Index: index, Err: err}
		}

		p.reportProgress(Progress{
			Phase:        phase,
			Current:      index + 1,
			Total:        total,
			Percentage:   percent(index+1, total),
			BytesWritten: 4 * hi,
			Record:       rec,
			ElapsedTime:  time.Since(startTime),
		})
	}

	p.logInfo("RAM blocks written", "blocks", total, "elapsed", time.Since(startTime).String())
	return total, nil
}

func percent(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(current) / float64(total) * 100
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}
