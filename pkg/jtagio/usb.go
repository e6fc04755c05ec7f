package jtagio

import (
	"fmt"

	"github.com/google/gousb"
)

// knownUSBProbe pairs a VID:PID with the human-readable name of the probe
// hardware it identifies. The framed-serial backend rides over one of these
// USB-CDC devices once the OS exposes it as a serial port; this table only
// says which connected USB devices are worth surfacing to the user before
// they pick a port with --port.
type knownUSBProbe struct {
	VendorID  uint16
	ProductID uint16
	Name      string
}

var knownUSBProbes = []knownUSBProbe{
	{VendorID: 0x2e8a, ProductID: 0x000a, Name: "Raspberry Pi Pico (CDC/JTAG)"},
	{VendorID: 0x2e8a, ProductID: 0x000c, Name: "PicoProbe"},
	{VendorID: 0x0d28, ProductID: 0x0204, Name: "DAPLink CMSIS-DAP"},
	{VendorID: 0x1366, ProductID: 0x0101, Name: "SEGGER J-Link (CMSIS-DAP mode)"},
	{VendorID: 0x1366, ProductID: 0x0105, Name: "SEGGER J-Link"},
}

// ProbeUSBDevices enumerates connected USB devices and reports the ones
// matching a known JTAG-capable probe's VID:PID pair. It never opens a
// device, so it is safe to call even when another process (or backend) has
// the device claimed.
func ProbeUSBDevices() ([]Info, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var infos []Info
	_, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if known, ok := classifyUSBDevice(desc); ok {
			infos = append(infos, Info{
				Name: known.Name,
				Kind: "usb",
				Serial: fmt.Sprintf("%04x:%04x", uint16(desc.Vendor), uint16(desc.Product)),
			})
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return infos, fmt.Errorf("jtagio: enumerate USB devices: %w", err)
	}
	return infos, nil
}

func classifyUSBDevice(desc *gousb.DeviceDesc) (knownUSBProbe, bool) {
	for _, known := range knownUSBProbes {
		if uint16(desc.Vendor) == known.VendorID && uint16(desc.Product) == known.ProductID {
			return known, true
		}
	}
	return knownUSBProbe{}, false
}
