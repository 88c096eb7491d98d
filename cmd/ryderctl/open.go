package main

import (
	"fmt"

	"github.com/spf13/cobra"

	ryder "github.com/chazkiker2/ryderserial-proto"
)

var cmdOpen = &cobra.Command{
	Use:   "open <port>",
	Short: "Open a serial port and wait for the device to respond to WAKE",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

func init() {
	rootCmd.AddCommand(cmdOpen)
}

func runOpen(_ *cobra.Command, args []string) error {
	d := newDriver()
	if err := d.Open(args[0]); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = d.Close() }()

	ctx, cancel := cmdContext()
	defer cancel()

	completion := d.Send([]byte{ryder.OpWake.Byte()}, false)
	val, err := completion.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wake: %w", err)
	}
	fmt.Printf("device responded: %v\n", val)
	return nil
}
