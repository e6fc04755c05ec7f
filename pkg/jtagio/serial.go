package jtagio

import (
	"encoding/binary"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/jtagscan/jtagscan/pkg/tap"
)

// Framed serial protocol constants (spec section 6 / "Pico backend").
const (
	frameStart byte = 0xA5

	cmdPing      byte = 0x01
	cmdResetTAP  byte = 0x02
	cmdSetClock  byte = 0x03
	cmdWriteTMS  byte = 0x10
	cmdShiftData byte = 0x11

	respOK   byte = 0x80
	respData byte = 0x81
)

// SerialAdapter is the framed USB-CDC backend: a length-prefixed,
// CRC-8-checked command/response protocol carried over a standard serial
// port, talking to a microcontroller bit-banging (or hardware-assisting)
// the JTAG TAP.
type SerialAdapter struct {
	portName string
	baud     int
	port     serial.Port

	connected bool
	clockHz   uint32
	state     tap.State
}

// NewSerialAdapter builds a serial backend bound to portName (e.g.
// "/dev/ttyACM0", "COM5") at baud.
func NewSerialAdapter(portName string, baud int) *SerialAdapter {
	return &SerialAdapter{portName: portName, baud: baud, clockHz: 1_000_000, state: tap.StateTestLogicReset}
}

// ProbeSerialPorts lists serial ports that look like a framed-protocol
// probe; callers still need to Open+Ping to confirm a real device answers.
func ProbeSerialPorts() ([]Info, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("jtagio: list serial ports: %w", err)
	}
	out := make([]Info, 0, len(ports))
	for _, p := range ports {
		out = append(out, Info{Name: p, Kind: "serial"})
	}
	return out, nil
}

func (a *SerialAdapter) Open() error {
	mode := &serial.Mode{BaudRate: a.baud}
	port, err := serial.Open(a.portName, mode)
	if err != nil {
		return fmt.Errorf("jtagio: open serial port %s: %w", a.portName, err)
	}
	port.SetReadTimeout(2 * time.Second)
	a.port = port
	a.connected = true

	if err := a.sendFrame(cmdPing, nil); err != nil {
		a.Close()
		return fmt.Errorf("jtagio: ping %s: %w", a.portName, err)
	}
	if _, err := a.recvFrame(); err != nil {
		a.Close()
		return fmt.Errorf("jtagio: ping %s: no response: %w", a.portName, err)
	}
	return nil
}

func (a *SerialAdapter) Close() error {
	a.connected = false
	if a.port == nil {
		return nil
	}
	err := a.port.Close()
	a.port = nil
	return err
}

func (a *SerialAdapter) IsConnected() bool { return a.connected }

func (a *SerialAdapter) SetClockSpeed(hz uint32) error {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, hz)
	if err := a.roundTrip(cmdSetClock, payload); err != nil {
		return err
	}
	a.clockHz = hz
	return nil
}

func (a *SerialAdapter) GetClockSpeed() uint32 { return a.clockHz }

func (a *SerialAdapter) ResetTAP() error {
	if err := a.roundTrip(cmdResetTAP, nil); err != nil {
		return err
	}
	a.state = tap.StateTestLogicReset
	return nil
}

// WriteTMS drives numBits TMS values and tracks the resulting TAP state
// locally so ScanIR/ScanDR can navigate via the precomputed path table.
func (a *SerialAdapter) WriteTMS(tms []bool) error {
	payload := make([]byte, 1+(len(tms)+7)/8)
	payload[0] = byte(len(tms))
	for i, bit := range tms {
		if bit {
			payload[1+i/8] |= 1 << uint(i%8)
		}
	}
	if err := a.roundTrip(cmdWriteTMS, payload); err != nil {
		return err
	}
	for _, bit := range tms {
		a.state = tap.NextState(a.state, bit)
	}
	return nil
}

func (a *SerialAdapter) ShiftData(tdi []byte, numBits int, exitShift bool) ([]byte, error) {
	payload := make([]byte, 5+len(tdi))
	binary.LittleEndian.PutUint32(payload[0:4], uint32(numBits))
	if exitShift {
		payload[4] = 1
	}
	copy(payload[5:], tdi)

	frame, err := a.roundTripData(cmdShiftData, payload)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

func (a *SerialAdapter) gotoState(target tap.State) error {
	if a.state == target {
		return nil
	}
	path := tap.LookupPath(a.state, target)
	if path.BitCount == 0 {
		a.state = target
		return nil
	}
	return a.WriteTMS(path.TMSBitsLSBFirst())
}

// scanRegion implements the transactional scanIR/scanDR contract: navigate
// to the shift state, shift numBits with exitShift set (which also drives
// TMS=1 on the final bit, exiting the shift state), then return to
// Run-Test/Idle via Update-IR/DR.
func (a *SerialAdapter) scanRegion(shiftState, exitState, updateState tap.State, numBits int, dataIn []byte) ([]byte, error) {
	if err := a.gotoState(shiftState); err != nil {
		return nil, err
	}
	out, err := a.ShiftData(dataIn, numBits, true)
	if err != nil {
		return nil, err
	}
	a.state = exitState
	if err := a.gotoState(updateState); err != nil {
		return nil, err
	}
	if err := a.gotoState(tap.StateRunTestIdle); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *SerialAdapter) ScanIR(irLen int, dataIn []byte) ([]byte, error) {
	return a.scanRegion(tap.StateShiftIR, tap.StateExit1IR, tap.StateUpdateIR, irLen, dataIn)
}

func (a *SerialAdapter) ScanDR(drLen int, dataIn []byte) ([]byte, error) {
	return a.scanRegion(tap.StateShiftDR, tap.StateExit1DR, tap.StateUpdateDR, drLen, dataIn)
}

func (a *SerialAdapter) ReadIDCODE() (uint32, error) {
	if err := a.gotoState(tap.StateRunTestIdle); err != nil {
		return 0, err
	}
	out, err := a.scanRegion(tap.StateShiftDR, tap.StateExit1DR, tap.StateUpdateDR, 32, make([]byte, 4))
	if err != nil {
		return 0, err
	}
	if len(out) < 4 {
		return 0, fmt.Errorf("jtagio: readIDCODE short reply (%d bytes)", len(out))
	}
	return binary.LittleEndian.Uint32(out), nil
}

func (a *SerialAdapter) Info() Info {
	return Info{Name: a.portName, Kind: "serial"}
}

func (a *SerialAdapter) roundTrip(cmd byte, payload []byte) error {
	if !a.connected {
		return ErrNotConnected
	}
	if err := a.sendFrame(cmd, payload); err != nil {
		return err
	}
	resp, err := a.recvFrame()
	if err != nil {
		return err
	}
	if resp.cmd != respOK {
		return fmt.Errorf("jtagio: unexpected response 0x%02x to command 0x%02x", resp.cmd, cmd)
	}
	return nil
}

func (a *SerialAdapter) roundTripData(cmd byte, payload []byte) ([]byte, error) {
	if !a.connected {
		return nil, ErrNotConnected
	}
	if err := a.sendFrame(cmd, payload); err != nil {
		return nil, err
	}
	resp, err := a.recvFrame()
	if err != nil {
		return nil, err
	}
	if resp.cmd != respData {
		return nil, fmt.Errorf("jtagio: unexpected response 0x%02x to command 0x%02x", resp.cmd, cmd)
	}
	return resp.payload, nil
}

// buildFrame encodes a command/payload pair into the wire format:
// [0xA5][cmd][lenLE u16][payload][crc8 over everything before it].
func buildFrame(cmd byte, payload []byte) []byte {
	buf := make([]byte, 4+len(payload)+1)
	buf[0] = frameStart
	buf[1] = cmd
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(payload)))
	copy(buf[4:], payload)
	buf[len(buf)-1] = crc8(buf[:len(buf)-1])
	return buf
}

type frame struct {
	cmd     byte
	payload []byte
}

// parseFrameHeader decodes the fixed 4-byte header and returns the declared
// payload length so the caller knows how many more bytes to read.
func parseFrameHeader(header []byte) (cmd byte, length uint16, err error) {
	if header[0] != frameStart {
		return 0, 0, fmt.Errorf("jtagio: bad frame start byte 0x%02x", header[0])
	}
	return header[1], binary.LittleEndian.Uint16(header[2:4]), nil
}

// parseFrameBody validates the CRC over header+payload and returns the
// decoded frame.
func parseFrameBody(header []byte, cmd byte, body []byte) (frame, error) {
	length := len(body) - 1
	payload := body[:length]
	gotCRC := body[length]
	wantCRC := crc8(append(append([]byte(nil), header...), payload...))
	if gotCRC != wantCRC {
		return frame{}, fmt.Errorf("jtagio: frame CRC mismatch")
	}
	return frame{cmd: cmd, payload: payload}, nil
}

func (a *SerialAdapter) sendFrame(cmd byte, payload []byte) error {
	_, err := a.port.Write(buildFrame(cmd, payload))
	return err
}

func (a *SerialAdapter) recvFrame() (frame, error) {
	header := make([]byte, 4)
	if err := a.readFull(header); err != nil {
		return frame{}, fmt.Errorf("jtagio: read frame header: %w", err)
	}
	cmd, length, err := parseFrameHeader(header)
	if err != nil {
		return frame{}, err
	}
	body := make([]byte, int(length)+1)
	if err := a.readFull(body); err != nil {
		return frame{}, fmt.Errorf("jtagio: read frame body: %w", err)
	}
	return parseFrameBody(header, cmd, body)
}

func (a *SerialAdapter) readFull(buf []byte) error {
	read := 0
	for read < len(buf) {
		n, err := a.port.Read(buf[read:])
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("jtagio: serial read timed out")
		}
		read += n
	}
	return nil
}
