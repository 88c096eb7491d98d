package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cmdWatch = &cobra.Command{
	Use:   "watch <port>",
	Short: "Open a port and print driver events until interrupted",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(cmdWatch)
}

func runWatch(_ *cobra.Command, args []string) error {
	d := newDriver()
	if err := d.Open(args[0]); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = d.Close() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	fmt.Println("watching; press Ctrl-C to stop")
	<-sig
	return nil
}
