package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "jtagscan",
	Short: "Host-side IEEE 1149.1 boundary-scan controller",
	Long: `jtagscan parses BSDL files, discovers JTAG adapters, and drives
boundary scan devices through the simulator, a SEGGER J-Link, or a framed
serial probe.

Examples:
  jtagscan parse device.bsd
  jtagscan interfaces
  jtagscan probe --adapter simulator --bsdl device.bsd
  jtagscan pin --bsdl device.bsd --pin LED --high`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
