package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-flexfx/internal/config"
	"github.com/moffa90/go-flexfx/midi"
)

var (
	cmdList = &cobra.Command{
		Use:   "list",
		Short: "List MIDI ports",
		Long:  ``,
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
)

var listUSB bool

func init() {
	rootCmd.AddCommand(cmdList)
	cmdList.Flags().BoolVarP(&listUSB, "usb", "u", false, "Also list attached USB devices")
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return listPorts(cmd.OutOrStdout(), cfg, listUSB)
}

// listPorts prints the numbered MIDI ports and optionally the USB devices.
func listPorts(out io.Writer, cfg *config.Config, usb bool) error {
	eps, err := midi.Discover(cfg.Endpoints(), cfg.Discovery.Patterns)
	if err != nil {
		return err
	}

	if rootSimulate {
		fmt.Fprintln(out, "Simulated device (any port index)")
	}

	fmt.Fprintln(out, color.New(color.Bold).Sprint("MIDI ports:"))
	if len(eps) == 0 {
		fmt.Fprintln(out, "  none found")
	}
	for _, ep := range eps {
		fmt.Fprintf(out, "  %s\n", ep)
	}

	if !usb {
		return nil
	}

	devs, err := midi.ListUSB()
	if errors.Is(err, midi.ErrUSBUnsupported) {
		fmt.Fprintln(out, color.YellowString("USB listing not supported on this platform"))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, color.New(color.Bold).Sprint("USB devices:"))
	for _, d := range devs {
		fmt.Fprintf(out, "  %s\n", d)
	}
	return nil
}
