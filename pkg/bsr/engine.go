package bsr

import (
	"fmt"

	"github.com/jtagscan/jtagscan/pkg/jtagio"
	"github.com/jtagscan/jtagscan/pkg/tap"
)

// PinLevel is the logical value of a boundary scan cell.
type PinLevel int

const (
	Low PinLevel = iota
	High
)

// OperationMode is the JTAG instruction currently believed to be loaded on
// the device, tracked by the controller so the engine knows the overwrite
// rule to apply in SamplePins.
type OperationMode int

const (
	ModeSAMPLE OperationMode = iota
	ModeEXTEST
	ModeINTEST
	ModeBYPASS
)

// Engine is the boundary scan engine for a single device: it owns the
// adapter, tracks the TAP state, and holds the dual BSR buffers.
type Engine struct {
	adapter      jtagio.Adapter
	state        tap.State
	bsrLength    int
	irLength     int
	bsr          []byte
	bsrCapture   []byte
	operationMode OperationMode
}

// New builds an engine for a device with the given BSR and IR lengths. The
// adapter must already be open.
func New(adapter jtagio.Adapter, bsrLength, irLength int) (*Engine, error) {
	if adapter == nil {
		return nil, fmt.Errorf("bsr: adapter is nil")
	}
	if !adapter.IsConnected() {
		return nil, fmt.Errorf("bsr: adapter must be connected before creating engine")
	}
	numBytes := (bsrLength + 7) / 8
	return &Engine{
		adapter:    adapter,
		state:      tap.StateTestLogicReset,
		bsrLength:  bsrLength,
		irLength:   irLength,
		bsr:        make([]byte, numBytes),
		bsrCapture: make([]byte, numBytes),
	}, nil
}

// State returns the engine's tracked TAP state.
func (e *Engine) State() tap.State { return e.state }

// SetOperationMode records the instruction believed to be currently loaded,
// which governs SamplePins' overwrite rule.
func (e *Engine) SetOperationMode(m OperationMode) { e.operationMode = m }

// OperationMode returns the engine's current tracked operation mode.
func (e *Engine) OperationMode() OperationMode { return e.operationMode }

// BSRLength returns the boundary register length in bits.
func (e *Engine) BSRLength() int { return e.bsrLength }

// Reset issues a TAP reset via the adapter; on success the engine's tracked
// state becomes TEST_LOGIC_RESET.
func (e *Engine) Reset() error {
	if err := e.adapter.ResetTAP(); err != nil {
		return fmt.Errorf("bsr: reset: %w", err)
	}
	e.state = tap.StateTestLogicReset
	return nil
}

// ResetJTAGStateMachine drives 5x TMS=1 then 1x TMS=0, guaranteeing
// Run-Test/Idle regardless of the prior state.
func (e *Engine) ResetJTAGStateMachine() error {
	seq := []bool{true, true, true, true, true, false}
	if err := e.adapter.WriteTMS(seq); err != nil {
		return fmt.Errorf("bsr: resetJTAGStateMachine: %w", err)
	}
	e.state = tap.StateRunTestIdle
	return nil
}

// GotoState navigates to target using the TAP's precomputed shortest-path
// table; a no-op if already there.
func (e *Engine) GotoState(target tap.State) error {
	if e.state == target {
		return nil
	}
	path := tap.LookupPath(e.state, target)
	if err := e.adapter.WriteTMS(path.TMSBitsLSBFirst()); err != nil {
		return fmt.Errorf("bsr: gotoState %s->%s: %w", e.state, target, err)
	}
	e.state = target
	return nil
}

// LoadInstruction shifts opcode into the instruction register via the
// adapter's transactional ScanIR, which handles TAP navigation itself.
func (e *Engine) LoadInstruction(opcode uint32, irLength int) error {
	numBytes := (irLength + 7) / 8
	dataIn := make([]byte, numBytes)
	for i := 0; i < numBytes; i++ {
		dataIn[i] = byte(opcode >> uint(i*8))
	}
	if _, err := e.adapter.ScanIR(irLength, dataIn); err != nil {
		return fmt.Errorf("bsr: loadInstruction: %w", err)
	}
	e.state = tap.StateRunTestIdle
	return nil
}

// ReadIDCODE delegates to the adapter's transactional ReadIDCODE.
func (e *Engine) ReadIDCODE() (uint32, error) {
	id, err := e.adapter.ReadIDCODE()
	if err != nil {
		return 0, fmt.Errorf("bsr: readIDCODE: %w", err)
	}
	e.state = tap.StateRunTestIdle
	return id, nil
}

// RunTestCycles ensures Run-Test/Idle, then clocks n TMS=0 cycles.
func (e *Engine) RunTestCycles(n int) error {
	if e.state != tap.StateRunTestIdle {
		if err := e.GotoState(tap.StateRunTestIdle); err != nil {
			return err
		}
	}
	if n == 0 {
		return nil
	}
	idle := make([]bool, n)
	if err := e.adapter.WriteTMS(idle); err != nil {
		return fmt.Errorf("bsr: runTestCycles: %w", err)
	}
	return nil
}

// SetPin writes a bit into the write buffer bsr. No TAP activity occurs.
func (e *Engine) SetPin(cell int, level PinLevel) error {
	if cell < 0 || cell >= e.bsrLength {
		return fmt.Errorf("bsr: setPin: cell %d out of range [0,%d)", cell, e.bsrLength)
	}
	byteIdx, bitIdx := cell/8, uint(cell%8)
	if level == High {
		e.bsr[byteIdx] |= 1 << bitIdx
	} else {
		e.bsr[byteIdx] &^= 1 << bitIdx
	}
	return nil
}

// GetPin reads the desired value currently held in bsr (the write buffer).
func (e *Engine) GetPin(cell int) (PinLevel, error) {
	return readBit(e.bsr, cell, e.bsrLength)
}

// GetPinReadback reads the last captured value in bsrCapture (the read
// buffer), i.e. what the chip returned on TDO at the last scan.
func (e *Engine) GetPinReadback(cell int) (PinLevel, error) {
	return readBit(e.bsrCapture, cell, e.bsrLength)
}

func readBit(buf []byte, cell, length int) (PinLevel, error) {
	if cell < 0 || cell >= length {
		return Low, fmt.Errorf("bsr: cell %d out of range [0,%d)", cell, length)
	}
	byteIdx, bitIdx := cell/8, uint(cell%8)
	if (buf[byteIdx]>>bitIdx)&1 == 1 {
		return High, nil
	}
	return Low, nil
}

// ApplyChanges scans DR with bsr as TDI; the reply is stored in bsrCapture.
// bsr is never overwritten by a scan.
func (e *Engine) ApplyChanges() error {
	if e.bsrLength == 0 {
		return fmt.Errorf("bsr: applyChanges: zero-length BSR")
	}
	out, err := e.adapter.ScanDR(e.bsrLength, e.bsr)
	if err != nil {
		return fmt.Errorf("bsr: applyChanges: %w", err)
	}
	e.bsrCapture = out
	e.state = tap.StateRunTestIdle
	return nil
}

// SamplePins scans DR and always stores the reply in bsrCapture. It also
// overwrites bsr with the reply, but only when the current operation mode
// is SAMPLE or BYPASS (read-only modes) — in EXTEST/INTEST, bsr holds
// pending user edits that must survive a sample.
func (e *Engine) SamplePins() error {
	if e.bsrLength == 0 {
		return fmt.Errorf("bsr: samplePins: zero-length BSR")
	}
	out, err := e.adapter.ScanDR(e.bsrLength, e.bsr)
	if err != nil {
		return fmt.Errorf("bsr: samplePins: %w", err)
	}
	e.bsrCapture = out
	if e.operationMode == ModeSAMPLE || e.operationMode == ModeBYPASS {
		e.bsr = append([]byte(nil), out...)
	}
	e.state = tap.StateRunTestIdle
	return nil
}

// PreloadBSR scans DR (used while SAMPLE/PRELOAD is the active instruction)
// to load the chip's update latch without disturbing pins; bsr is preserved.
func (e *Engine) PreloadBSR() error {
	if e.bsrLength == 0 {
		return fmt.Errorf("bsr: preloadBSR: zero-length BSR")
	}
	out, err := e.adapter.ScanDR(e.bsrLength, e.bsr)
	if err != nil {
		return fmt.Errorf("bsr: preloadBSR: %w", err)
	}
	e.bsrCapture = out
	e.state = tap.StateRunTestIdle
	return nil
}

// SetBSR replaces the write buffer wholesale, subject to a length check.
func (e *Engine) SetBSR(data []byte) error {
	numBytes := (e.bsrLength + 7) / 8
	if len(data) != numBytes {
		return fmt.Errorf("bsr: setBSR: got %d bytes, want %d", len(data), numBytes)
	}
	e.bsr = append([]byte(nil), data...)
	return nil
}

// BSR returns the current write buffer.
func (e *Engine) BSR() []byte { return e.bsr }

// IsNoTargetDetected reports whether every byte of bsr is 0xFF, the
// idle/pull-up pattern of a disconnected chain.
func (e *Engine) IsNoTargetDetected() bool {
	if len(e.bsr) == 0 {
		return false
	}
	for _, b := range e.bsr {
		if b != 0xFF {
			return false
		}
	}
	return true
}
