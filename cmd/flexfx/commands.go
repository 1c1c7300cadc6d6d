package main

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "flexfx [port file] | [port w0 w1 w2 w3 w4 w5]",
		Short: "Program FlexFX devices over MIDI.",
		Long: `Program FlexFX devices over MIDI.

With no arguments the available MIDI ports are listed.

With a port index and a file, the file suffix selects the upload:
  .bin  firmware image (erase, write, finalize)
  .dat  raw data written to the RAM properties page
  .wav  impulse response samples written to the RAM properties page
  .txt  property records, six hex words per line

With a port index and six hex words, one property record is sent and the
device's reply is printed.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runRoot,
	}
)

var rootConfig string
var rootDebug bool
var rootAckTimeout time.Duration
var rootMetrics string
var rootSimulate bool
var rootProgress bool

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootConfig, "config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&rootDebug, "debug", "d", false, "Debug logging")
	rootCmd.PersistentFlags().DurationVar(&rootAckTimeout, "ack-timeout", 0, "Fail if the device does not acknowledge within this time (0 waits forever)")
	rootCmd.PersistentFlags().StringVarP(&rootMetrics, "metrics", "m", "", "Prom metrics address")
	rootCmd.PersistentFlags().BoolVar(&rootSimulate, "simulate", false, "Talk to a simulated device instead of a MIDI port")
	rootCmd.Flags().BoolVarP(&rootProgress, "progress", "p", true, "Show progress")
}

func Execute() error {
	return rootCmd.Execute()
}
