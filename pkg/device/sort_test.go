package device

import "testing"

func TestAlphanumericOrder(t *testing.T) {
	pins := []PinInfo{
		{Name: "p5", PinNumber: "B1"},
		{Name: "p3", PinNumber: "A10"},
		{Name: "p1", PinNumber: "A1"},
		{Name: "p4", PinNumber: "A11"},
		{Name: "p2", PinNumber: "A2"},
		{Name: "p6", PinNumber: "AA1"},
		{Name: "p7", PinNumber: ""},
	}
	sortPins(pins)
	want := []string{"A1", "A2", "A10", "A11", "B1", "AA1", ""}
	for i, w := range want {
		if pins[i].PinNumber != w {
			t.Fatalf("position %d = %q, want %q (full: %+v)", i, pins[i].PinNumber, w, pins)
		}
	}
}

func TestBuildPinClosure(t *testing.T) {
	// every port must yield exactly one PinInfo, even with no BSR cells
	d := mustParse(t, `
entity FOO is
	port (
		VCC, GND : in bit;
		LED : out bit
	);
	attribute BOUNDARY_LENGTH of FOO : entity is 2;
	attribute BOUNDARY_REGISTER of FOO : entity is
		"1 (BC_1, *, CONTROL, 1)," &
		"0 (BC_1, LED, OUTPUT3, X, 1, 1, Z)";
end FOO;
`)
	m := Build(d)
	if len(m.Pins) != 3 {
		t.Fatalf("got %d pins, want 3: %+v", len(m.Pins), m.Pins)
	}
	led, ok := m.PinByName("LED")
	if !ok {
		t.Fatalf("LED pin missing")
	}
	if led.OutputCell != 0 || led.ControlCell != 1 {
		t.Fatalf("LED cells = out:%d ctrl:%d, want out:0 ctrl:1", led.OutputCell, led.ControlCell)
	}
	vcc, ok := m.PinByName("VCC")
	if !ok {
		t.Fatalf("VCC pin missing")
	}
	if vcc.InputCell != NoCell || vcc.OutputCell != NoCell {
		t.Fatalf("VCC should have no BSR cells, got %+v", vcc)
	}
}

func TestBuildPinClosureSurvivesSliceGrowth(t *testing.T) {
	// LED's cells must resolve correctly even though many ports are appended
	// to m.Pins after it, forcing the backing array to reallocate.
	d := mustParse(t, `
entity BAR is
	port (
		LED : out bit;
		P1, P2, P3, P4, P5, P6, P7, P8, P9, P10 : in bit
	);
	attribute BOUNDARY_LENGTH of BAR : entity is 2;
	attribute BOUNDARY_REGISTER of BAR : entity is
		"1 (BC_1, *, CONTROL, 1)," &
		"0 (BC_1, LED, OUTPUT3, X, 1, 1, Z)";
end BAR;
`)
	m := Build(d)
	if len(m.Pins) != 11 {
		t.Fatalf("got %d pins, want 11: %+v", len(m.Pins), m.Pins)
	}
	led, ok := m.PinByName("LED")
	if !ok {
		t.Fatalf("LED pin missing")
	}
	if led.OutputCell != 0 || led.ControlCell != 1 {
		t.Fatalf("LED cells = out:%d ctrl:%d, want out:0 ctrl:1", led.OutputCell, led.ControlCell)
	}
}

func TestUnknownInstructionSentinel(t *testing.T) {
	d := mustParse(t, `entity FOO is end FOO;`)
	m := Build(d)
	if m.Opcode("SAMPLE") != UnknownInstruction {
		t.Fatalf("expected sentinel for missing instruction")
	}
}
