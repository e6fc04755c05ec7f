package cmd

import (
	"fmt"

	"github.com/jtagscan/jtagscan/pkg/bsdl"
	"github.com/jtagscan/jtagscan/pkg/device"
	"github.com/jtagscan/jtagscan/pkg/idcode"
	"github.com/jtagscan/jtagscan/pkg/idcode/deviceinfo"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <bsdl-file>",
	Short: "Show device model info for a BSDL file, including decoded IDCODE",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	data, err := bsdl.Parse(args[0])
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}
	model := device.Build(data)

	fmt.Printf("Entity:          %s\n", model.EntityName)
	fmt.Printf("IR Length:       %d bits\n", model.IRLength)
	fmt.Printf("Boundary Length: %d bits\n", model.BSRLength)
	fmt.Printf("Pins:            %d\n", len(model.Pins))
	fmt.Printf("Instructions:    %d\n", len(model.Instructions))

	if data.IDCode != 0 {
		parsed := idcode.ParseIDCode(data.IDCode)
		fmt.Printf("IDCODE:          0x%08X\n", parsed.Raw)
		fmt.Printf("  Version:       %d\n", parsed.Version)
		fmt.Printf("  Part Number:   0x%04X\n", parsed.PartNumber)
		if mfr, ok := idcode.LookupManufacturer(parsed.ManufacturerCode); ok {
			fmt.Printf("  Manufacturer:  %s (%s)\n", mfr.Name, mfr.Abbreviation)
		} else {
			fmt.Printf("  Manufacturer:  unknown (JEP106 code 0x%03X)\n", parsed.ManufacturerCode)
		}

		if known := deviceinfo.Lookup(data.IDCode); known.Name != "Unknown device" {
			fmt.Printf("  Device:        %s (%s)\n", known.Name, known.Family)
			if known.Description != "" {
				fmt.Printf("  Description:   %s\n", known.Description)
			}
		}
	}

	if verbose {
		fmt.Println("\nPins:")
		for _, p := range model.Pins {
			fmt.Printf("  %-20s %-8s pad=%-6s in=%d out=%d ctrl=%d\n",
				p.Name, p.Type, p.PinNumber, p.InputCell, p.OutputCell, p.ControlCell)
		}
	}

	return nil
}
