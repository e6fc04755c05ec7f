package jtagio

import "fmt"

// DiscoverAdapters enumerates every backend this module knows how to talk
// to: the simulator (always present), every vendor J-Link the library can
// enumerate over USB, any other known JTAG-capable USB probe currently
// plugged in, and any serial ports that might be running the framed
// protocol. Backends that fail to probe are omitted rather than treated as
// fatal, since a normal machine will be missing most of them.
func DiscoverAdapters() []Info {
	infos := ProbeSimulators()
	infos = append(infos, probeVendorDevices()...)

	if usbDevices, err := ProbeUSBDevices(); err == nil {
		infos = append(infos, usbDevices...)
	}

	if ports, err := ProbeSerialPorts(); err == nil {
		infos = append(infos, ports...)
	}

	return infos
}

// probeVendorDevices enumerates USB-connected J-Links by serial number so a
// caller can pick one with SetTargetSerialNumber. If the library is present
// but enumeration finds nothing (no probe plugged in), it falls back to a
// single generic entry so the backend still shows up as available.
func probeVendorDevices() []Info {
	devices, err := EnumerateJLinkDevices()
	if err != nil {
		return nil
	}
	if len(devices) == 0 {
		if path, err := FindVendorLibrary(); err == nil {
			return []Info{{Name: "SEGGER J-Link", Kind: "vendor", FirmwareID: path}}
		}
		return nil
	}

	infos := make([]Info, 0, len(devices))
	for _, d := range devices {
		name := d.ProductName
		if name == "" {
			name = "SEGGER J-Link"
		}
		infos = append(infos, Info{
			Name:       name,
			Kind:       "vendor",
			Serial:     fmt.Sprintf("%d", d.SerialNumber),
			FirmwareID: d.FirmwareVersion,
		})
	}
	return infos
}
