package cmd

import (
	"fmt"

	"github.com/jtagscan/jtagscan/pkg/controller"
	"github.com/spf13/cobra"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List available JTAG adapters",
	Long: `Scan the host for JTAG adapters: the built-in simulator, SEGGER
J-Links reachable through the vendor library, known JTAG probes on USB
(matched by VID:PID), and every serial port on the host. Serial ports are
listed without checking whether they answer the framed probe protocol.`,
	RunE: runInterfaces,
}

func init() {
	rootCmd.AddCommand(interfacesCmd)
}

func runInterfaces(cmd *cobra.Command, args []string) error {
	infos := controller.DiscoverAdapters()
	if len(infos) == 0 {
		fmt.Println("No adapters found.")
		return nil
	}

	fmt.Println("Detected adapters:")
	for _, info := range infos {
		fmt.Printf("  - %-10s [%s]\n", info.Name, info.Kind)
	}
	return nil
}
