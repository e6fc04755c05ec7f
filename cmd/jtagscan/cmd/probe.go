package cmd

import (
	"fmt"
	"os"

	"github.com/jtagscan/jtagscan/pkg/bsdl"
	"github.com/jtagscan/jtagscan/pkg/controller"
	"github.com/jtagscan/jtagscan/pkg/idcode"
	"github.com/spf13/cobra"
)

var (
	probeAdapter string
	probeBSDL    string
	probePort    string
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Connect to a device, read its IDCODE, and check it against a BSDL file",
	Long: `Connect through the chosen adapter, read the device's IDCODE with the
adapter's ReadIDCODE (the instruction register is not loaded with the
IDCODE opcode first), and report whether the returned IDCODE matches the
one declared in the BSDL file.

Exits 0 on a match or when the BSDL file declares no IDCODE, 1 otherwise,
for use in scripted bring-up checks.`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVar(&probeAdapter, "adapter", "simulator", "adapter kind: simulator, vendor, or serial")
	probeCmd.Flags().StringVar(&probeBSDL, "bsdl", "", "BSDL file to check the IDCODE against (required)")
	probeCmd.Flags().StringVar(&probePort, "port", "", "serial port, when --adapter=serial")
	probeCmd.MarkFlagRequired("bsdl")
}

func runProbe(cmd *cobra.Command, args []string) error {
	data, err := bsdl.Parse(probeBSDL)
	if err != nil {
		return fmt.Errorf("parse %s: %w", probeBSDL, err)
	}

	adapter, err := openAdapterByName(probeAdapter, probePort)
	if err != nil {
		return err
	}
	defer adapter.Close()

	c := controller.New()
	if err := c.Connect(adapter); err != nil {
		return err
	}
	if err := c.LoadBSDL(probeBSDL); err != nil {
		return fmt.Errorf("load device model: %w", err)
	}

	got, err := c.Engine().ReadIDCODE()
	if err != nil {
		return fmt.Errorf("readIDCODE: %w", err)
	}

	fmt.Printf("Read IDCODE:     0x%08X\n", got)
	fmt.Printf("Expected IDCODE: 0x%08X\n", data.IDCode)

	if mfr, ok := idcode.LookupManufacturer(idcode.ParseIDCode(got).ManufacturerCode); ok {
		fmt.Printf("Manufacturer:    %s\n", mfr.Name)
	}

	if data.IDCode != 0 && got != data.IDCode {
		fmt.Println("MISMATCH")
		os.Exit(1)
	}
	fmt.Println("MATCH")
	return nil
}
