package jtagio

import "testing"

func TestBuildFrameRoundTrip(t *testing.T) {
	payload := []byte{0x01, 0x00, 0x00}
	wire := buildFrame(cmdShiftData, payload)

	cmd, length, err := parseFrameHeader(wire[:4])
	if err != nil {
		t.Fatalf("parseFrameHeader: %v", err)
	}
	if cmd != cmdShiftData {
		t.Fatalf("cmd = %#02x, want %#02x", cmd, cmdShiftData)
	}
	if int(length) != len(payload) {
		t.Fatalf("length = %d, want %d", length, len(payload))
	}

	got, err := parseFrameBody(wire[:4], cmd, wire[4:])
	if err != nil {
		t.Fatalf("parseFrameBody: %v", err)
	}
	if string(got.payload) != string(payload) {
		t.Fatalf("payload = %v, want %v", got.payload, payload)
	}
}

func TestParseFrameHeaderRejectsBadStart(t *testing.T) {
	_, _, err := parseFrameHeader([]byte{0x00, cmdPing, 0x00, 0x00})
	if err == nil {
		t.Fatalf("expected error for bad start byte")
	}
}

func TestParseFrameBodyDetectsCorruption(t *testing.T) {
	wire := buildFrame(cmdPing, nil)
	wire[len(wire)-1] ^= 0xFF // flip the CRC byte
	_, err := parseFrameBody(wire[:4], cmdPing, wire[4:])
	if err == nil {
		t.Fatalf("expected CRC mismatch error")
	}
}

func TestBuildFramePingHasZeroLength(t *testing.T) {
	wire := buildFrame(cmdPing, nil)
	if len(wire) != 5 {
		t.Fatalf("ping frame length = %d, want 5 (header + crc, no payload)", len(wire))
	}
}
