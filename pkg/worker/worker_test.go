package worker

import (
	"testing"
	"time"

	"github.com/jtagscan/jtagscan/pkg/bsr"
	"github.com/jtagscan/jtagscan/pkg/jtagio"
)

type fakeEntry struct {
	enterCount int
	exitCount  int
}

func (f *fakeEntry) EnterEXTEST() error { f.enterCount++; return nil }
func (f *fakeEntry) EnterSAMPLE() error  { f.exitCount++; return nil }

func newTestWorker(t *testing.T) (*ScanWorker, *fakeEntry) {
	t.Helper()
	sim := jtagio.NewSimAdapter(jtagio.Info{Name: "test"})
	if err := sim.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	e, err := bsr.New(sim, 8, 4)
	if err != nil {
		t.Fatalf("bsr.New: %v", err)
	}
	entry := &fakeEntry{}
	return New(e, entry), entry
}

func TestTickPublishesSnapshot(t *testing.T) {
	w, _ := newTestWorker(t)
	if backoff := w.tick(); backoff {
		t.Fatalf("tick reported backoff on a healthy engine")
	}
	select {
	case snap := <-w.Snapshots():
		if len(snap) != 8 {
			t.Fatalf("snapshot length = %d, want 8", len(snap))
		}
	default:
		t.Fatalf("expected a snapshot after tick")
	}
}

func TestTickEntersEXTESTOnDirtyPins(t *testing.T) {
	w, entry := newTestWorker(t)
	w.SetPinAsync(0, bsr.High)
	w.tick()
	if entry.enterCount != 1 {
		t.Fatalf("enterCount = %d, want 1", entry.enterCount)
	}
	v, err := w.engine.GetPin(0)
	if err != nil || v != bsr.High {
		t.Fatalf("getPin(0) = %v, %v, want High", v, err)
	}
}

func TestTickReturnsToSampleWhenDirtyPinsDrain(t *testing.T) {
	w, entry := newTestWorker(t)
	w.SetScanMode(bsr.ModeSAMPLE)
	w.SetPinAsync(0, bsr.High)
	w.tick() // enters EXTEST, applies the write

	w.tick() // no more dirty pins, mode is SAMPLE -> should exit EXTEST
	if entry.exitCount != 1 {
		t.Fatalf("exitCount = %d, want 1", entry.exitCount)
	}
}

func TestSnapshotChannelCoalesces(t *testing.T) {
	w, _ := newTestWorker(t)
	w.tick()
	w.tick()
	w.tick()
	select {
	case <-w.Snapshots():
	default:
		t.Fatalf("expected at least one coalesced snapshot")
	}
	select {
	case <-w.Snapshots():
		t.Fatalf("snapshot channel should not buffer a backlog")
	default:
	}
}

func TestStartStop(t *testing.T) {
	w, _ := newTestWorker(t)
	w.SetPollInterval(5 * time.Millisecond)
	w.Start()
	time.Sleep(20 * time.Millisecond)
	w.Stop()
	select {
	case <-w.Snapshots():
	default:
		t.Fatalf("expected the running loop to have produced a snapshot")
	}
}
