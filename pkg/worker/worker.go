// Package worker implements the single background loop that owns the
// boundary scan engine at runtime: it drains pending pin writes, drives the
// adapter, and publishes pin snapshots without ever letting the calling
// (UI) goroutine touch the engine or adapter directly.
package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jtagscan/jtagscan/pkg/bsr"
)

// Level is the logical value of a published pin, with HighZ standing in for
// a cell the current snapshot could not resolve.
type Level int

const (
	LevelLow Level = iota
	LevelHigh
	LevelHighZ
)

// Snapshot is a point-in-time read of every boundary scan cell.
type Snapshot []Level

// EXTESTEntry performs the safe IEEE-1149.1 entry/exit sequences around
// EXTEST. The controller implements this (it owns the device model needed
// to resolve instruction opcodes) and is injected into the worker so the
// worker package never needs to import the controller.
type EXTESTEntry interface {
	EnterEXTEST() error
	EnterSAMPLE() error
}

const defaultPollIntervalMs = 100

// ScanWorker is the cooperative single-background-worker loop described by
// the concurrency model: one goroutine owns the engine and the adapter, the
// caller only ever enqueues writes or flips the mode flag.
type ScanWorker struct {
	engine *bsr.Engine
	entry  EXTESTEntry

	running        atomic.Bool
	pollIntervalMs atomic.Int64
	currentMode    atomic.Int32
	inExtestMode   bool

	mu        sync.Mutex
	dirtyPins map[int]bsr.PinLevel

	snapshots chan Snapshot
	errors    chan error
	stop      chan struct{}
	done      chan struct{}
}

// New builds a worker over engine. entry supplies the safe EXTEST
// enter/exit sequences; it may be nil if the caller never switches into
// EXTEST (e.g. a read-only SAMPLE-only session).
func New(engine *bsr.Engine, entry EXTESTEntry) *ScanWorker {
	w := &ScanWorker{
		engine:    engine,
		entry:     entry,
		dirtyPins: make(map[int]bsr.PinLevel),
		snapshots: make(chan Snapshot, 1),
		errors:    make(chan error, 16),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	w.pollIntervalMs.Store(defaultPollIntervalMs)
	w.currentMode.Store(int32(bsr.ModeSAMPLE))
	return w
}

// Snapshots returns the channel pin snapshots are published on. It is
// bounded to size 1 and coalescing: a slow reader only ever sees the latest
// snapshot, never a backlog.
func (w *ScanWorker) Snapshots() <-chan Snapshot { return w.snapshots }

// Errors returns the channel transaction failures are published on. Unlike
// Snapshots, errors are never dropped; a full channel applies backpressure
// to the tick loop rather than discard one.
func (w *ScanWorker) Errors() <-chan error { return w.errors }

// SetPollInterval changes the tick period; takes effect on the next sleep.
func (w *ScanWorker) SetPollInterval(d time.Duration) {
	w.pollIntervalMs.Store(d.Milliseconds())
}

// SetScanMode atomically updates the mode the tick loop consults to decide
// whether to return to SAMPLE once no writes are pending. Any mode other
// than BYPASS causes the worker to self-start if it was stopped.
func (w *ScanWorker) SetScanMode(m bsr.OperationMode) {
	w.currentMode.Store(int32(m))
	if m != bsr.ModeBYPASS {
		w.start()
	}
}

// SetPinAsync enqueues a pin write for the next tick. The caller never
// touches the engine or adapter directly.
func (w *ScanWorker) SetPinAsync(cell int, level bsr.PinLevel) {
	w.mu.Lock()
	w.dirtyPins[cell] = level
	w.mu.Unlock()
}

// Start launches the tick loop in its own goroutine if it is not already
// running.
func (w *ScanWorker) Start() {
	w.start()
}

func (w *ScanWorker) start() {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	w.done = make(chan struct{})
	w.stop = make(chan struct{})
	go w.loop()
}

// Stop requests the loop exit; no in-flight JTAG transaction is
// interrupted. It blocks until the loop has actually returned.
func (w *ScanWorker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	close(w.stop)
	<-w.done
}

func (w *ScanWorker) loop() {
	defer close(w.done)
	for w.running.Load() {
		select {
		case <-w.stop:
			return
		default:
		}

		if backoff := w.tick(); backoff {
			time.Sleep(time.Second)
		}

		select {
		case <-w.stop:
			return
		case <-time.After(time.Duration(w.pollIntervalMs.Load()) * time.Millisecond):
		}
	}
}

// tick runs exactly one loop iteration and reports whether the caller
// should back off a second before the next one (a transaction failed).
func (w *ScanWorker) tick() (backoff bool) {
	w.mu.Lock()
	dirty := w.dirtyPins
	hasDirty := len(dirty) > 0
	if hasDirty {
		w.dirtyPins = make(map[int]bsr.PinLevel)
	}
	w.mu.Unlock()

	if hasDirty {
		if !w.inExtestMode && w.entry != nil {
			if err := w.entry.EnterEXTEST(); err != nil {
				w.emitError(err)
				return true
			}
			w.inExtestMode = true
		}
		for cell, level := range dirty {
			if err := w.engine.SetPin(cell, level); err != nil {
				w.emitError(err)
			}
		}
		if err := w.engine.ApplyChanges(); err != nil {
			w.emitError(err)
			return true
		}
	} else if w.inExtestMode && bsr.OperationMode(w.currentMode.Load()) == bsr.ModeSAMPLE && w.entry != nil {
		if err := w.entry.EnterSAMPLE(); err != nil {
			w.emitError(err)
		}
		w.inExtestMode = false
	}

	if err := w.engine.SamplePins(); err != nil {
		w.emitError(err)
		return true
	}

	snapshot := make(Snapshot, w.engine.BSRLength())
	for i := range snapshot {
		level, err := w.engine.GetPin(i)
		if err != nil {
			snapshot[i] = LevelHighZ
			continue
		}
		if level == bsr.High {
			snapshot[i] = LevelHigh
		} else {
			snapshot[i] = LevelLow
		}
	}
	w.emitSnapshot(snapshot)
	return false
}

// emitSnapshot coalesces: if a prior snapshot is still sitting unread, it is
// discarded in favor of the latest one.
func (w *ScanWorker) emitSnapshot(s Snapshot) {
	select {
	case w.snapshots <- s:
	default:
		select {
		case <-w.snapshots:
		default:
		}
		select {
		case w.snapshots <- s:
		default:
		}
	}
}

func (w *ScanWorker) emitError(err error) {
	w.errors <- err
}
