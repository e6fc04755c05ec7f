package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/jtagscan/jtagscan/pkg/bsdl"
	"github.com/spf13/cobra"
)

var (
	parseLint bool
	parseJSON bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <bsdl-file>",
	Short: "Parse and display information from a BSDL file",
	Long: `Parse a BSDL file and display its entity, ports, instructions, and
boundary scan cells. Pin mappings are not printed in the text output; the
--json output includes them.

Examples:
  jtagscan parse device.bsd
  jtagscan parse --lint device.bsd
  jtagscan parse --json device.bsd`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseLint, "lint", false, "also run the strict grammar and report diagnostics")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "print the parsed document as JSON")
}

func runParse(cmd *cobra.Command, args []string) error {
	filename := args[0]

	data, err := bsdl.Parse(filename)
	if err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}

	if parseLint {
		diags, lintErr := bsdl.ParseStrict(filename)
		if lintErr != nil {
			fmt.Printf("lint: could not run the strict grammar: %v\n\n", lintErr)
		}
		for _, d := range diags {
			fmt.Printf("lint: %s\n", d.Message)
		}
	}

	if parseJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	fmt.Printf("╔════════════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║ BSDL File Information                                            ║\n")
	fmt.Printf("╠════════════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║ Entity: %-58s ║\n", data.EntityName)
	fmt.Printf("╚════════════════════════════════════════════════════════════════╝\n\n")

	if data.PhysicalPinMap != "" {
		fmt.Printf("Physical pin map: %s\n", data.PhysicalPinMap)
	}
	fmt.Printf("IR Length:       %d bits\n", data.IRLength)
	fmt.Printf("Boundary Length: %d bits\n", data.BSRLength)
	if data.IDCode != 0 {
		fmt.Printf("IDCODE:          0x%08X\n", data.IDCode)
	}
	fmt.Println()

	fmt.Printf("Ports: %d total\n", len(data.Ports))
	if verbose || len(data.Ports) <= 20 {
		for _, p := range data.Ports {
			fmt.Printf("  %-20s : %s\n", p.Name, p.Direction)
		}
	} else {
		for i := 0; i < 10; i++ {
			fmt.Printf("  %-20s : %s\n", data.Ports[i].Name, data.Ports[i].Direction)
		}
		fmt.Printf("  ... and %d more ports (use -v to show all)\n", len(data.Ports)-10)
	}
	fmt.Println()

	fmt.Printf("Instructions: %d total\n", len(data.Instructions))
	for name, opcode := range data.Instructions {
		fmt.Printf("  %-15s %s\n", name, opcode)
	}
	fmt.Println()

	if len(data.BoundaryCells) > 0 {
		fmt.Printf("Boundary Register: %d cells\n", len(data.BoundaryCells))
		if verbose {
			for _, c := range data.BoundaryCells {
				fmt.Printf("  %3d: %-6s %-12s %-9s\n", c.Number, c.CellType, c.Port, c.Function)
			}
		}
	}

	fmt.Println("Parsing completed successfully!")
	return nil
}
