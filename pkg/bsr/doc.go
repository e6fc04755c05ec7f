// Package bsr implements the boundary scan engine: the dual-buffer Boundary
// Scan Register controller that sits between the device model and a JTAG
// adapter for a single device on the scan chain.
//
// The engine keeps two BSR-sized byte buffers. bsr is the write (TDI-side)
// buffer: the values the caller wants to present to the chip. bsrCapture is
// the read (TDO-side) buffer: the values the chip last returned. Bits are
// addressed little-endian within each byte — bit i of cell c is
// bsr[c/8] >> (c%8) & 1.
//
// Which buffer changes in response to a scan depends on the current
// OperationMode:
//
//   - ApplyChanges scans bsr out and stores the reply in bsrCapture only.
//     bsr is never touched by a scan.
//   - SamplePins also stores the reply in bsrCapture, and additionally
//     copies it into bsr, but only in the read-only modes (SAMPLE, BYPASS).
//     In EXTEST/INTEST the caller's pending edits in bsr must survive a
//     sample, so bsr is left alone.
//   - PreloadBSR scans bsr out (priming the chip's update latch while
//     SAMPLE/PRELOAD is the active instruction) and only updates bsrCapture.
//
// Entering EXTEST or INTEST safely requires a specific instruction/scan
// sequence so the chip's outputs never glitch; the engine exposes the
// primitives (SamplePins, PreloadBSR, LoadInstruction, SetOperationMode)
// that sequence is built from, but the sequence itself lives one layer up
// in pkg/controller, which is the only caller that knows the device's
// SAMPLE/PRELOAD and EXTEST/INTEST opcodes.
package bsr
