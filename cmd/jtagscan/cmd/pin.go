package cmd

import (
	"fmt"

	"github.com/jtagscan/jtagscan/pkg/controller"
	"github.com/spf13/cobra"
)

var (
	pinAdapter string
	pinBSDL    string
	pinName    string
	pinPort    string
	pinHigh    bool
	pinLow     bool
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Drive a single pin through EXTEST and report the readback",
	Long: `Connect, load the device model, enter the safe EXTEST sequence, drive
one named pin high or low, and print what the device's own TDO readback
reports for that pin.`,
	RunE: runPin,
}

func init() {
	rootCmd.AddCommand(pinCmd)
	pinCmd.Flags().StringVar(&pinAdapter, "adapter", "simulator", "adapter kind: simulator, vendor, or serial")
	pinCmd.Flags().StringVar(&pinBSDL, "bsdl", "", "BSDL file describing the device (required)")
	pinCmd.Flags().StringVar(&pinName, "pin", "", "logical pin name (required)")
	pinCmd.Flags().StringVar(&pinPort, "port", "", "serial port, when --adapter=serial")
	pinCmd.Flags().BoolVar(&pinHigh, "high", false, "drive the pin high")
	pinCmd.Flags().BoolVar(&pinLow, "low", false, "drive the pin low")
	pinCmd.MarkFlagRequired("bsdl")
	pinCmd.MarkFlagRequired("pin")
}

func runPin(cmd *cobra.Command, args []string) error {
	if pinHigh == pinLow {
		return fmt.Errorf("exactly one of --high or --low is required")
	}

	adapter, err := openAdapterByName(pinAdapter, pinPort)
	if err != nil {
		return err
	}
	defer adapter.Close()

	c := controller.New()
	if err := c.Connect(adapter); err != nil {
		return err
	}
	if err := c.LoadBSDL(pinBSDL); err != nil {
		return fmt.Errorf("load device model: %w", err)
	}

	pin, ok := c.Model().PinByName(pinName)
	if !ok {
		return fmt.Errorf("unknown pin %q", pinName)
	}
	if pin.OutputCell < 0 {
		return fmt.Errorf("pin %q has no output cell", pinName)
	}

	if err := c.EnterEXTEST(); err != nil {
		return fmt.Errorf("enter EXTEST: %w", err)
	}

	value := uint64(0)
	if pinHigh {
		value = 1
	}
	if err := c.WriteBus([]string{pinName}, value); err != nil {
		return fmt.Errorf("write pin: %w", err)
	}

	if c.IsNoTargetDetected() {
		fmt.Println("warning: boundary register reads all-1s, no target detected")
	}

	readback, err := c.Engine().GetPinReadback(pin.OutputCell)
	if err != nil {
		return fmt.Errorf("read back pin: %w", err)
	}
	fmt.Printf("%s set %v, readback %v\n", pinName, pinHigh, readback)
	return nil
}
