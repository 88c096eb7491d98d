package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazkiker2/ryderserial-proto/internal/usbwallet"
)

var cmdList = &cobra.Command{
	Use:   "list",
	Short: "List candidate Ryder devices",
	Long:  ``,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(cmdList)
}

func runList(_ *cobra.Command, _ []string) error {
	enumerator := usbwallet.NewEnumerator(usbwallet.Ryder)
	defer enumerator.Close()

	infos, err := enumerator.Infos()
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("no candidate devices found")
		return nil
	}
	for _, info := range infos {
		fmt.Println(info.Path())
	}
	return nil
}
