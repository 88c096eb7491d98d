package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "ryderctl",
	Short:         "Operator tool for the Ryder USB-serial driver.",
	Long:          ``,
	SilenceErrors: true,
	SilenceUsage:  true,
}

var debug bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable trace-level logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
