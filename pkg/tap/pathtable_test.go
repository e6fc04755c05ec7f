package tap

import "testing"

func TestPathTableMatchesBFSLength(t *testing.T) {
	for from := State(0); from < numStates; from++ {
		for to := State(0); to < numStates; to++ {
			want, err := computePath(from, to)
			if err != nil {
				t.Fatalf("computePath(%s,%s): %v", from, to, err)
			}
			got := LookupPath(from, to)
			if int(got.BitCount) != len(want.TMS) {
				t.Fatalf("%s->%s: bitCount=%d, want %d", from, to, got.BitCount, len(want.TMS))
			}
		}
	}
}

func TestPathTableDrivesToTarget(t *testing.T) {
	for from := State(0); from < numStates; from++ {
		for to := State(0); to < numStates; to++ {
			path := LookupPath(from, to)
			cur := from
			for _, bit := range path.TMSBitsLSBFirst() {
				cur = NextState(cur, bit)
			}
			if cur != to {
				t.Fatalf("%s->%s: driving packed path ended at %s", from, to, cur)
			}
		}
	}
}

func TestPathTableDiagonalIsNoOp(t *testing.T) {
	for s := State(0); s < numStates; s++ {
		p := LookupPath(s, s)
		if p.BitCount != 0 || p.TMSBits != 0 {
			t.Fatalf("%s->%s: expected no-op, got %+v", s, s, p)
		}
	}
}

func TestShiftIRToShiftDRMatchesSpecExample(t *testing.T) {
	path := LookupPath(StateShiftIR, StateShiftDR)
	bits := path.TMSBitsLSBFirst()
	want := []bool{true, true, true, false, false}
	if len(bits) != len(want) {
		t.Fatalf("got %d bits, want %d: %v", len(bits), len(want), bits)
	}
	for i, w := range want {
		if bits[i] != w {
			t.Fatalf("bit %d = %v, want %v (full %v)", i, bits[i], w, bits)
		}
	}
}
