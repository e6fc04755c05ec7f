package tap_test

import (
	"testing"

	"github.com/jtagscan/jtagscan/pkg/jtagio"
	. "github.com/jtagscan/jtagscan/pkg/tap"
)

func TestStateMachineSequencesDriveSimAdapter(t *testing.T) {
	m := NewStateMachine()
	// Leave reset so the path is more interesting.
	m.Clock(false) // -> Run-Test/Idle

	seq, err := m.GoTo(StateShiftIR)
	if err != nil {
		t.Fatalf("GoTo returned error: %v", err)
	}

	sim := jtagio.NewSimAdapter(jtagio.Info{Name: "sim"})
	if err := sim.Open(); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	if err := sim.WriteTMS(seq.TMS); err != nil {
		t.Fatalf("WriteTMS returned error: %v", err)
	}
	if sim.WriteTMSCount != 1 {
		t.Fatalf("WriteTMSCount = %d, want 1", sim.WriteTMSCount)
	}

	if m.State() != StateShiftIR {
		t.Fatalf("state machine ended in %s, want %s", m.State(), StateShiftIR)
	}
	if seq.States[len(seq.States)-1] != StateShiftIR {
		t.Fatalf("sequence ended in %s, want %s", seq.States[len(seq.States)-1], StateShiftIR)
	}
}
