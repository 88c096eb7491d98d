package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

var cmdSend = &cobra.Command{
	Use:   "send <port> <opcode-hex> [payload-hex]",
	Short: "Send one command and print its result",
	Long:  ``,
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runSend,
}

var sendPrepend bool

func init() {
	cmdSend.Flags().BoolVar(&sendPrepend, "prepend", false, "jump ahead of the queue (for CANCEL-like commands)")
	rootCmd.AddCommand(cmdSend)
}

func runSend(_ *cobra.Command, args []string) error {
	opcode, err := hex.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("opcode: %w", err)
	}
	payload := []byte{}
	if len(args) == 3 {
		payload, err = hex.DecodeString(args[2])
		if err != nil {
			return fmt.Errorf("payload: %w", err)
		}
	}

	d := newDriver()
	if err := d.Open(args[0]); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = d.Close() }()

	ctx, cancel := cmdContext()
	defer cancel()

	completion := d.Send(append(opcode, payload...), sendPrepend)
	val, err := completion.Wait(ctx)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	switch v := val.(type) {
	case []byte:
		fmt.Println(hex.EncodeToString(v))
	default:
		fmt.Printf("%v\n", v)
	}
	return nil
}
