// Package controller is the thin coordinator a UI or CLI owns: it wires
// together BSDL parsing, the device model, the boundary scan engine, an
// adapter, and the scan worker, and exposes the safe IEEE-1149.1 mode
// transitions on top of them.
package controller

import (
	"fmt"

	"github.com/jtagscan/jtagscan/pkg/bsdl"
	"github.com/jtagscan/jtagscan/pkg/bsr"
	"github.com/jtagscan/jtagscan/pkg/device"
	"github.com/jtagscan/jtagscan/pkg/jtagio"
	"github.com/jtagscan/jtagscan/pkg/worker"
)

// Controller coordinates one device's adapter, engine, and worker.
type Controller struct {
	adapter jtagio.Adapter
	model   *device.Model
	engine  *bsr.Engine
	worker  *worker.ScanWorker
}

// New builds an empty controller. Adapters and a device model are attached
// separately via Connect and LoadBSDL.
func New() *Controller {
	return &Controller{}
}

// DiscoverAdapters enumerates every backend composed across the simulator,
// vendor-library, and serial probes.
func DiscoverAdapters() []jtagio.Info {
	return jtagio.DiscoverAdapters()
}

// Connect opens adapter and retains it; any previously connected adapter is
// closed first.
func (c *Controller) Connect(adapter jtagio.Adapter) error {
	if c.adapter != nil {
		_ = c.adapter.Close()
	}
	if err := adapter.Open(); err != nil {
		return fmt.Errorf("controller: open adapter: %w", err)
	}
	c.adapter = adapter
	return nil
}

// Disconnect stops the worker (if running) and closes the adapter.
func (c *Controller) Disconnect() error {
	if c.worker != nil {
		c.worker.Stop()
	}
	if c.adapter == nil {
		return nil
	}
	err := c.adapter.Close()
	c.adapter = nil
	c.engine = nil
	return err
}

// LoadBSDL parses the BSDL file at path, builds the device model, and
// recreates the engine with the correct BSR length. A previously running
// worker is stopped and replaced.
func (c *Controller) LoadBSDL(path string) error {
	data, err := bsdl.Parse(path)
	if err != nil {
		return fmt.Errorf("controller: parse BSDL: %w", err)
	}
	return c.loadModel(device.Build(data))
}

// LoadBSDLString is LoadBSDL for already-read BSDL text (used by tests and
// by callers that already have the file contents in memory).
func (c *Controller) LoadBSDLString(text string) error {
	data := bsdl.ParseString(text)
	return c.loadModel(device.Build(data))
}

func (c *Controller) loadModel(model *device.Model) error {
	if c.adapter == nil {
		return fmt.Errorf("controller: no adapter connected")
	}
	if c.worker != nil {
		c.worker.Stop()
	}
	engine, err := bsr.New(c.adapter, model.BSRLength, model.IRLength)
	if err != nil {
		return fmt.Errorf("controller: create engine: %w", err)
	}
	c.model = model
	c.engine = engine
	c.worker = worker.New(engine, c)
	return nil
}

// Model returns the currently loaded device model, or nil.
func (c *Controller) Model() *device.Model { return c.model }

// Engine returns the underlying boundary scan engine, or nil.
func (c *Controller) Engine() *bsr.Engine { return c.engine }

// Worker returns the owned scan worker, or nil.
func (c *Controller) Worker() *worker.ScanWorker { return c.worker }

// samplePreloadOpcode resolves SAMPLE/PRELOAD, falling back to SAMPLE.
func (c *Controller) samplePreloadOpcode() uint32 {
	if op := c.model.Opcode("SAMPLE/PRELOAD"); op != device.UnknownInstruction {
		return op
	}
	return c.model.Opcode("SAMPLE")
}

// EnterEXTEST performs the safe IEEE-1149.1 EXTEST entry sequence: load
// SAMPLE/PRELOAD, sample current pins, preload the update latch with the
// pending write buffer, then load EXTEST so pins switch atomically with no
// glitch. It satisfies worker.EXTESTEntry.
func (c *Controller) EnterEXTEST() error {
	if c.engine == nil {
		return fmt.Errorf("controller: no engine loaded")
	}
	if err := c.engine.LoadInstruction(c.samplePreloadOpcode(), c.model.IRLength); err != nil {
		return err
	}
	if err := c.engine.SamplePins(); err != nil {
		return err
	}
	if err := c.engine.PreloadBSR(); err != nil {
		return err
	}
	if err := c.engine.LoadInstruction(c.model.Opcode("EXTEST"), c.model.IRLength); err != nil {
		return err
	}
	c.engine.SetOperationMode(bsr.ModeEXTEST)
	return nil
}

// EnterINTEST performs the same safe entry sequence as EnterEXTEST but
// loads INTEST, for driving/observing internal logic instead of the pins.
func (c *Controller) EnterINTEST() error {
	if c.engine == nil {
		return fmt.Errorf("controller: no engine loaded")
	}
	if err := c.engine.LoadInstruction(c.samplePreloadOpcode(), c.model.IRLength); err != nil {
		return err
	}
	if err := c.engine.SamplePins(); err != nil {
		return err
	}
	if err := c.engine.PreloadBSR(); err != nil {
		return err
	}
	if err := c.engine.LoadInstruction(c.model.Opcode("INTEST"), c.model.IRLength); err != nil {
		return err
	}
	c.engine.SetOperationMode(bsr.ModeINTEST)
	return nil
}

// EnterSAMPLE loads SAMPLE (or SAMPLE/PRELOAD) for read-only observation.
// It satisfies worker.EXTESTEntry as the exit side of the EXTEST sequence.
func (c *Controller) EnterSAMPLE() error {
	if c.engine == nil {
		return fmt.Errorf("controller: no engine loaded")
	}
	if err := c.engine.LoadInstruction(c.samplePreloadOpcode(), c.model.IRLength); err != nil {
		return err
	}
	c.engine.SetOperationMode(bsr.ModeSAMPLE)
	return nil
}

// EnterBYPASS loads BYPASS and sets the mode; the worker is not required to
// keep polling afterward.
func (c *Controller) EnterBYPASS() error {
	if c.engine == nil {
		return fmt.Errorf("controller: no engine loaded")
	}
	if err := c.engine.LoadInstruction(c.model.Opcode("BYPASS"), c.model.IRLength); err != nil {
		return err
	}
	c.engine.SetOperationMode(bsr.ModeBYPASS)
	if c.worker != nil {
		c.worker.SetScanMode(bsr.ModeBYPASS)
	}
	return nil
}

// WriteBus decomposes value bit-by-bit across pinNames (pinNames[0] is the
// LSB), writes each bit with SetPin, then applies them all in a single
// ApplyChanges transaction.
func (c *Controller) WriteBus(pinNames []string, value uint64) error {
	if c.engine == nil || c.model == nil {
		return fmt.Errorf("controller: no engine loaded")
	}
	for i, name := range pinNames {
		pin, ok := c.model.PinByName(name)
		if !ok {
			return fmt.Errorf("controller: unknown pin %q", name)
		}
		if pin.OutputCell == device.NoCell {
			return fmt.Errorf("controller: pin %q has no output cell", name)
		}
		level := bsr.Low
		if (value>>uint(i))&1 == 1 {
			level = bsr.High
		}
		if err := c.engine.SetPin(pin.OutputCell, level); err != nil {
			return err
		}
	}
	return c.engine.ApplyChanges()
}

// IsNoTargetDetected delegates to the engine.
func (c *Controller) IsNoTargetDetected() bool {
	if c.engine == nil {
		return false
	}
	return c.engine.IsNoTargetDetected()
}
