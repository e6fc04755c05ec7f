package jtagio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestVendorLibraryNameByGOOS(t *testing.T) {
	name := vendorLibraryName()
	if name == "" {
		t.Fatalf("vendorLibraryName returned empty string")
	}
}

func TestFindOnPATH(t *testing.T) {
	dir := t.TempDir()
	libName := "fake-jlink.so"
	if err := os.WriteFile(filepath.Join(dir, libName), []byte("stub"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	t.Setenv("PATH", dir)

	got, err := lookPathCompat(libName)
	if err != nil {
		t.Fatalf("lookPathCompat: %v", err)
	}
	if got != filepath.Join(dir, libName) {
		t.Fatalf("lookPathCompat = %s, want %s", got, filepath.Join(dir, libName))
	}
}

func TestFindOnPATHMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if _, err := lookPathCompat("does-not-exist.so"); err == nil {
		t.Fatalf("expected error for missing library")
	}
}

func TestSearchRecursiveFindsNestedFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	target := filepath.Join(nested, "libjlinkarm.so")
	if err := os.WriteFile(target, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := searchRecursive([]string{root}, "libjlinkarm.so", 10, 5*time.Second)
	if err != nil {
		t.Fatalf("searchRecursive: %v", err)
	}
	if got != target {
		t.Fatalf("searchRecursive = %s, want %s", got, target)
	}
}

func TestSearchRecursiveRespectsBlacklist(t *testing.T) {
	if vendorSearchBlacklist["/proc"] != true {
		t.Fatalf("expected /proc to be blacklisted")
	}

	root := t.TempDir()
	blocked := filepath.Join(root, "blocked")
	if err := os.MkdirAll(blocked, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(blocked, "libjlinkarm.so"), []byte("stub"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	vendorSearchBlacklist[blocked] = true
	defer delete(vendorSearchBlacklist, blocked)
	if got, err := searchRecursive([]string{root}, "libjlinkarm.so", 10, 5*time.Second); err == nil {
		t.Fatalf("searchRecursive found %s inside a blacklisted directory", got)
	}
}

func TestPackBitsLSBFirst(t *testing.T) {
	got := packBits([]bool{true, false, true, false, false, false, false, false, true})
	want := []byte{0x05, 0x01}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("packBits = %v, want %v", got, want)
	}
}

func fakeEmuInfoEntry(serial uint32, connection uint32, product, firmware string) []byte {
	entry := make([]byte, emuInfoSize)
	binary.LittleEndian.PutUint32(entry[emuInfoOffSerialNumber:], serial)
	binary.LittleEndian.PutUint32(entry[emuInfoOffConnection:], connection)
	copy(entry[emuInfoOffProduct:emuInfoOffProduct+emuInfoLenProduct], product)
	copy(entry[emuInfoOffFirmware:emuInfoOffFirmware+emuInfoLenFirmware], firmware)
	return entry
}

func TestParseEmuInfoUSBDevice(t *testing.T) {
	entry := fakeEmuInfoEntry(123456, 0, "J-Link", "V7.00")
	got := parseEmuInfo(entry)
	if got.SerialNumber != 123456 {
		t.Fatalf("SerialNumber = %d, want 123456", got.SerialNumber)
	}
	if got.ProductName != "J-Link" {
		t.Fatalf("ProductName = %q, want J-Link", got.ProductName)
	}
	if got.FirmwareVersion != "V7.00" {
		t.Fatalf("FirmwareVersion = %q, want V7.00", got.FirmwareVersion)
	}
	if !got.IsUSB {
		t.Fatalf("expected IsUSB = true for Connection = 0")
	}
}

func TestParseEmuInfoNonUSBConnection(t *testing.T) {
	entry := fakeEmuInfoEntry(1, 1, "J-Link Pro", "V6.88")
	got := parseEmuInfo(entry)
	if got.IsUSB {
		t.Fatalf("expected IsUSB = false for Connection = 1 (IP)")
	}
}

func TestCStringTrimsAtNUL(t *testing.T) {
	buf := make([]byte, 8)
	copy(buf, "abc")
	if got := cString(buf); got != "abc" {
		t.Fatalf("cString = %q, want abc", got)
	}
}
