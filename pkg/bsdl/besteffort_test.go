package bsdl

import "testing"

func TestParseStringBasicFields(t *testing.T) {
	text := `
entity FOO is
	generic (PHYSICAL_PIN_MAP : string := "TQFP100");
	port (
		TCK, TMS, TDI : in bit;
		TDO : out bit;
		DATA : inout bit_vector(7 downto 0)
	);
	attribute BOUNDARY_LENGTH of FOO : entity is 8;
	attribute INSTRUCTION_LENGTH of FOO : entity is 4;
	attribute INSTRUCTION_OPCODE of FOO : entity is
		"BYPASS (1111)," &
		"EXTEST (0000)";
	attribute IDCODE_REGISTER of FOO : entity is
		"00010010001101000101011001111000";
end FOO;
`
	d := ParseString(text)

	if d.EntityName != "FOO" {
		t.Fatalf("entity name = %q, want FOO", d.EntityName)
	}
	if d.PhysicalPinMap != "TQFP100" {
		t.Fatalf("physical pin map = %q, want TQFP100", d.PhysicalPinMap)
	}
	if d.BSRLength != 8 {
		t.Fatalf("bsr length = %d, want 8", d.BSRLength)
	}
	if d.IRLength != 4 {
		t.Fatalf("ir length = %d, want 4", d.IRLength)
	}
	if d.IDCode != 0x12345678 {
		t.Fatalf("idcode = %#x, want 0x12345678", d.IDCode)
	}
	if got, want := d.Instructions["BYPASS"], "1111"; got != want {
		t.Fatalf("BYPASS opcode = %q, want %q", got, want)
	}
	if got, want := d.Instructions["EXTEST"], "0000"; got != want {
		t.Fatalf("EXTEST opcode = %q, want %q", got, want)
	}

	wantNames := []string{"TCK", "TMS", "TDI", "TDO",
		"DATA(7)", "DATA(6)", "DATA(5)", "DATA(4)",
		"DATA(3)", "DATA(2)", "DATA(1)", "DATA(0)"}
	if len(d.Ports) != len(wantNames) {
		t.Fatalf("got %d ports, want %d: %+v", len(d.Ports), len(wantNames), d.Ports)
	}
	for i, name := range wantNames {
		if d.Ports[i].Name != name {
			t.Fatalf("port %d = %q, want %q", i, d.Ports[i].Name, name)
		}
	}
	if d.Ports[0].Direction != DirIn {
		t.Fatalf("TCK direction = %q, want in", d.Ports[0].Direction)
	}
	if d.Ports[4].Direction != DirInout {
		t.Fatalf("DATA(7) direction = %q, want inout", d.Ports[4].Direction)
	}
}

func TestParseStringPortExpansionAscending(t *testing.T) {
	text := `
entity BAR is
	port (
		ADDR : out bit_vector(0 to 3)
	);
end BAR;
`
	d := ParseString(text)
	want := []string{"ADDR(0)", "ADDR(1)", "ADDR(2)", "ADDR(3)"}
	if len(d.Ports) != len(want) {
		t.Fatalf("got %d ports, want %d", len(d.Ports), len(want))
	}
	for i, name := range want {
		if d.Ports[i].Name != name {
			t.Fatalf("port %d = %q, want %q", i, d.Ports[i].Name, name)
		}
	}
}

func TestParseStringBoundaryRegisterAndPinMap(t *testing.T) {
	text := `
entity DEV is
	attribute PIN_MAP_STRING : PIN_MAP_STRING := "LED : A1, CTRL : B2";
	attribute BOUNDARY_REGISTER of DEV : entity is
		"1 (BC_1, *, CONTROL, 1)," &
		"0 (BC_1, LED, OUTPUT3, X, 1, 1, Z)";
end DEV;
`
	d := ParseString(text)
	if len(d.BoundaryCells) != 2 {
		t.Fatalf("got %d boundary cells, want 2", len(d.BoundaryCells))
	}
	if d.BoundaryCells[0].Number != 0 || d.BoundaryCells[1].Number != 1 {
		t.Fatalf("boundary cells not sorted by number: %+v", d.BoundaryCells)
	}
	out := d.BoundaryCells[0]
	if out.Port != "LED" || out.Function != "OUTPUT3" || out.Control != 1 || out.Disable != 1 {
		t.Fatalf("unexpected output cell: %+v", out)
	}
	ctrl := d.BoundaryCells[1]
	if ctrl.Port != "*" || ctrl.Function != "CONTROL" {
		t.Fatalf("unexpected control cell: %+v", ctrl)
	}
	if got := d.PinMaps["LED"]; len(got) != 1 || got[0] != "A1" {
		t.Fatalf("pin map LED = %v, want [A1]", got)
	}
}

func TestParseStringMalformedSectionsDegradeGracefully(t *testing.T) {
	text := `entity EMPTY is end EMPTY;`
	d := ParseString(text)
	if d.EntityName != "EMPTY" {
		t.Fatalf("entity name = %q, want EMPTY", d.EntityName)
	}
	if d.BSRLength != 0 || d.IRLength != 0 || d.IDCode != 0 {
		t.Fatalf("expected zero defaults, got %+v", d)
	}
	if len(d.Ports) != 0 || len(d.BoundaryCells) != 0 {
		t.Fatalf("expected empty sections, got %+v", d)
	}
}

func TestParseMissingFile(t *testing.T) {
	if _, err := Parse("/nonexistent/path/does-not-exist.bsdl"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
