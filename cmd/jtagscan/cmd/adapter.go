package cmd

import (
	"fmt"

	"github.com/jtagscan/jtagscan/pkg/jtagio"
)

// openAdapterByName builds and opens the adapter named by kind ("simulator",
// "vendor", or "serial"). For "serial", port selects the serial port.
func openAdapterByName(kind, port string) (jtagio.Adapter, error) {
	var adapter jtagio.Adapter
	switch kind {
	case "simulator", "sim", "":
		adapter = jtagio.NewSimAdapter(jtagio.Info{Name: "cli"})
	case "vendor", "jlink":
		adapter = jtagio.NewVendorAdapter()
	case "serial":
		if port == "" {
			return nil, fmt.Errorf("--port is required for the serial adapter")
		}
		adapter = jtagio.NewSerialAdapter(port, 115200)
	default:
		return nil, fmt.Errorf("unknown adapter kind %q (want simulator, vendor, or serial)", kind)
	}
	if err := adapter.Open(); err != nil {
		return nil, fmt.Errorf("open %s adapter: %w", kind, err)
	}
	return adapter, nil
}
