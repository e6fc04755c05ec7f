package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jtagscan/jtagscan/pkg/controller"
	"github.com/jtagscan/jtagscan/pkg/worker"
	"github.com/spf13/cobra"
)

var (
	pollAdapter  string
	pollBSDL     string
	pollPort     string
	pollInterval time.Duration
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Start the scan worker and stream pin snapshots until interrupted",
	RunE:  runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)
	pollCmd.Flags().StringVar(&pollAdapter, "adapter", "simulator", "adapter kind: simulator, vendor, or serial")
	pollCmd.Flags().StringVar(&pollBSDL, "bsdl", "", "BSDL file describing the device (required)")
	pollCmd.Flags().StringVar(&pollPort, "port", "", "serial port, when --adapter=serial")
	pollCmd.Flags().DurationVar(&pollInterval, "interval", 100*time.Millisecond, "poll tick interval")
	pollCmd.MarkFlagRequired("bsdl")
}

func runPoll(cmd *cobra.Command, args []string) error {
	adapter, err := openAdapterByName(pollAdapter, pollPort)
	if err != nil {
		return err
	}
	defer adapter.Close()

	c := controller.New()
	if err := c.Connect(adapter); err != nil {
		return err
	}
	if err := c.LoadBSDL(pollBSDL); err != nil {
		return fmt.Errorf("load device model: %w", err)
	}

	w := c.Worker()
	w.SetPollInterval(pollInterval)
	w.Start()
	defer w.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("Polling %s every %s. Press Ctrl+C to stop.\n", c.Model().EntityName, pollInterval)

	for {
		select {
		case <-sigCh:
			return nil
		case snap := <-w.Snapshots():
			fmt.Println(formatSnapshot(snap))
		case err := <-w.Errors():
			fmt.Fprintf(os.Stderr, "poll error: %v\n", err)
		}
	}
}

func formatSnapshot(snap worker.Snapshot) string {
	var b strings.Builder
	for _, level := range snap {
		switch level {
		case worker.LevelLow:
			b.WriteByte('0')
		case worker.LevelHigh:
			b.WriteByte('1')
		default:
			b.WriteByte('Z')
		}
	}
	return b.String()
}
