package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moffa90/go-flexfx/internal/config"
	"github.com/moffa90/go-flexfx/internal/logging"
	"github.com/moffa90/go-flexfx/internal/simulator"
	"github.com/moffa90/go-flexfx/midi"
	"github.com/moffa90/go-flexfx/programmer"
	"github.com/moffa90/go-flexfx/propfile"
	"github.com/moffa90/go-flexfx/protocol"
	"github.com/moffa90/go-flexfx/wave"
)

// simulatedLabels are the parameter names the --simulate device reports.
var simulatedLabels = []string{"Volume", "Gain", "Bass", "Middle", "Treble", "Presence", "Cabinet"}

func runRoot(cmd *cobra.Command, args []string) error {
	j, err := parseJob(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if j.Kind == jobList {
		return listPorts(cmd.OutOrStdout(), cfg, false)
	}

	zl, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	sessionID := uuid.NewString()
	zl = zl.With(zap.String("session", sessionID), zap.String("job", j.Kind.String()))
	log := logging.NewAdapter(zl)

	opts := []programmer.Option{
		programmer.WithLogger(log),
		programmer.WithAckTimeout(cfg.Transfer.AckTimeout),
		programmer.WithPollInterval(cfg.Transfer.PollInterval),
	}

	if cfg.Metrics.Addr != "" {
		met, shutdown, err := serveMetrics(cfg.Metrics, zl)
		if err != nil {
			return err
		}
		defer shutdown()
		opts = append(opts, programmer.WithMetrics(met))
	}

	channel, err := openChannel(cfg, j.Port, log)
	if err != nil {
		return err
	}
	defer channel.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	view := newProgressView(color.Output, out, rootProgress && j.Kind != jobProperty)
	opts = append(opts, programmer.WithProgressCallback(view.Update))

	zl.Info("session started", zap.Int("port", j.Port), zap.String("path", j.Path))

	prog := programmer.New(channel, opts...)
	err = runJob(ctx, prog, out, j)
	view.Finish(err)
	if err != nil {
		zl.Error("session failed", zap.Error(err))
		return err
	}

	zl.Info("session complete")
	return nil
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(rootConfig)
	if err != nil {
		return nil, err
	}

	if rootDebug {
		cfg.Logging.Level = "debug"
	}
	if cmd.Flags().Changed("ack-timeout") {
		if rootAckTimeout < 0 {
			return nil, errors.New("--ack-timeout must not be negative")
		}
		cfg.Transfer.AckTimeout = rootAckTimeout
	}
	if rootMetrics != "" {
		cfg.Metrics.Addr = rootMetrics
	}
	return cfg, nil
}

type closingChannel interface {
	programmer.Channel
	io.Closer
}

// openChannel opens the MIDI endpoint with the given index, or a simulated
// device when --simulate is set.
func openChannel(cfg *config.Config, port int, log programmer.Logger) (closingChannel, error) {
	if rootSimulate {
		return simulator.New(
			simulator.WithLabels(simulatedLabels...),
			simulator.WithLogger(log),
		), nil
	}

	eps, err := midi.Discover(cfg.Endpoints(), cfg.Discovery.Patterns)
	if err != nil {
		return nil, err
	}
	ep, err := midi.Lookup(eps, port)
	if err != nil {
		return nil, err
	}

	log.Info("opening port", "endpoint", ep.String())
	return midi.Open(ep)
}

// runJob performs one upload job.
func runJob(ctx context.Context, prog *programmer.Programmer, out io.Writer, j job) error {
	switch j.Kind {
	case jobFirmware:
		image, err := os.ReadFile(j.Path)
		if err != nil {
			return fmt.Errorf("read firmware: %w", err)
		}
		if err := prog.Burn(ctx, image); err != nil {
			return err
		}
		fmt.Fprintf(out, "Burned %d bytes from %s\n", len(image), j.Path)

	case jobRAMData:
		f, err := os.Open(j.Path)
		if err != nil {
			return fmt.Errorf("open data file: %w", err)
		}
		defer f.Close()

		blocks, err := prog.WriteRAMData(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d RAM blocks from %s\n", blocks, j.Path)

	case jobSamples:
		w, err := wave.Parse(j.Path)
		if err != nil {
			return err
		}
		blocks, err := prog.WriteSamples(ctx, w.Samples)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d samples (%d Hz, %d-bit) in %d RAM blocks\n",
			min(len(w.Samples), blocks*protocol.RAMBlockWords), w.SampleRate, w.BitDepth, blocks)

	case jobProperties:
		file, err := propfile.Parse(j.Path)
		if err != nil {
			return err
		}
		if err := prog.WriteProperties(ctx, file.Properties); err != nil {
			return err
		}
		if file.Stopped != nil {
			fmt.Fprintf(out, "Input ended early: %v\n", file.Stopped)
		}
		fmt.Fprintf(out, "Wrote %d properties from %s\n", len(file.Properties), j.Path)

	case jobProperty:
		fmt.Fprintln(out, j.Record.String())
		reply, err := prog.WriteProperty(ctx, j.Record)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply.String())

	default:
		return fmt.Errorf("job %s cannot be run against a device", j.Kind)
	}
	return nil
}
