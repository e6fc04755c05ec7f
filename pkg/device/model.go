// Package device builds the in-memory device model from parsed BSDL data:
// the pin table addressed by logical name and physical pad, and the
// instruction opcode table addressed by name.
package device

import (
	"strings"

	"github.com/jtagscan/jtagscan/pkg/bsdl"
)

// PinType is the normalized direction of a pin in the device model.
type PinType string

const (
	TypeInput   PinType = "input"
	TypeOutput  PinType = "output"
	TypeInout   PinType = "inout"
	TypeLinkage PinType = "linkage"
	TypeUnknown PinType = "unknown"
)

// NoCell marks the absence of a BSR cell reference on a PinInfo.
const NoCell = -1

// UnknownInstruction is the sentinel opcode returned for an instruction name
// absent from the device's instruction table.
const UnknownInstruction uint32 = 0xFFFFFFFF

// PinInfo is one entry of the device model's pin table.
type PinInfo struct {
	Name        string
	Port        string
	Type        PinType
	PinNumber   string
	InputCell   int
	OutputCell  int
	ControlCell int
}

// Model is the device model built from a BSDLData value: a sorted pin table
// and an instruction opcode table, plus the structural facts downstream
// components (the boundary scan engine, the TAP sequencer) need directly.
type Model struct {
	EntityName   string
	IRLength     int
	BSRLength    int
	Pins         []PinInfo
	Instructions map[string]uint32
	TAP          bsdl.TAPSignals
}

// Build constructs a Model from parsed BSDL data per the pin-synthesis and
// instruction-table rules of the device model specification.
func Build(d *bsdl.Data) *Model {
	m := &Model{
		EntityName:   d.EntityName,
		IRLength:     d.IRLength,
		BSRLength:    d.BSRLength,
		Instructions: buildInstructionTable(d.Instructions),
		TAP:          d.TAP,
	}

	byPort := make(map[string]int, len(d.Ports))
	for _, port := range d.Ports {
		pin := PinInfo{
			Name:        port.Name,
			Port:        port.Name,
			Type:        normalizePinType(port.Direction),
			PinNumber:   firstPad(d.PinMaps[port.Name]),
			InputCell:   NoCell,
			OutputCell:  NoCell,
			ControlCell: NoCell,
		}
		m.Pins = append(m.Pins, pin)
		byPort[port.Name] = len(m.Pins) - 1
	}

	for _, cell := range d.BoundaryCells {
		if cell.Port == "" || cell.Port == "*" {
			continue
		}
		idx, ok := byPort[cell.Port]
		if !ok {
			continue
		}
		pin := &m.Pins[idx]
		switch strings.ToUpper(cell.Function) {
		case "INPUT", "CLOCK":
			if pin.InputCell == NoCell {
				pin.InputCell = cell.Number
			}
		case "OUTPUT2", "OUTPUT3":
			if pin.OutputCell == NoCell {
				pin.OutputCell = cell.Number
			}
			if cell.Control >= 0 && pin.ControlCell == NoCell {
				pin.ControlCell = cell.Control
			}
		case "BIDIR":
			if pin.InputCell == NoCell {
				pin.InputCell = cell.Number
			} else if pin.OutputCell == NoCell {
				pin.OutputCell = cell.Number
			}
			if cell.Control >= 0 && pin.ControlCell == NoCell {
				pin.ControlCell = cell.Control
			}
		case "CONTROL", "INTERNAL":
			// not externally visible pins
		}
	}

	sortPins(m.Pins)
	return m
}

func normalizePinType(dir bsdl.PortDirection) PinType {
	switch dir {
	case bsdl.DirIn:
		return TypeInput
	case bsdl.DirOut, bsdl.DirBuffer:
		return TypeOutput
	case bsdl.DirInout:
		return TypeInout
	case bsdl.DirLinkage:
		return TypeLinkage
	default:
		return TypeUnknown
	}
}

func firstPad(pads []string) string {
	if len(pads) == 0 {
		return ""
	}
	return pads[0]
}

func buildInstructionTable(raw map[string]string) map[string]uint32 {
	out := make(map[string]uint32, len(raw))
	for name, opcode := range raw {
		cleaned := strings.NewReplacer("X", "0", "x", "0").Replace(opcode)
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			continue
		}
		var v uint32
		valid := true
		for _, r := range cleaned {
			if r != '0' && r != '1' {
				valid = false
				break
			}
			v = v<<1 | uint32(r-'0')
		}
		if valid {
			out[name] = v
		}
	}
	return out
}

// Opcode returns the instruction's opcode, or UnknownInstruction if the
// device model has no entry for that name.
func (m *Model) Opcode(name string) uint32 {
	if v, ok := m.Instructions[name]; ok {
		return v
	}
	return UnknownInstruction
}

// PinByName looks up a pin by its logical name.
func (m *Model) PinByName(name string) (*PinInfo, bool) {
	for i := range m.Pins {
		if m.Pins[i].Name == name {
			return &m.Pins[i], true
		}
	}
	return nil, false
}
