package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "streamiodemo",
	Short: "Demonstrates the streamio segmented byte-stream I/O core end-to-end",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./streamio.yaml", "config file (default is ./streamio.yaml)")
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
