package jtagio

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/ebitengine/purego"
)

// VendorAdapter talks to a SEGGER J-Link (or compatible) probe through its
// vendor dynamic library, loaded at runtime with purego so the module never
// needs cgo or a build-time SDK.
type VendorAdapter struct {
	libPath          string
	lib              uintptr
	connected        bool
	clockHz          uint32
	targetSerialNo   uint32

	openEx            func(log uintptr, dummy uintptr) uintptr
	closeFn           func()
	jtagStoreRaw      func(tdi, tms uintptr, numBits uint32) int32
	jtagStoreGetRaw   func(tdi, tdo, tms uintptr, numBits uint32) int32
	jtagSyncBits      func()
	setSpeed          func(speedKHz uint32)
	emuSelectByUSBSN  func(serial uint32) int32
	emuGetList        func(interfaceMask uint32, buf uintptr, maxInfos uint32) uint32
}

// JLinkDeviceInfo describes one USB-connected J-Link reported by
// JLINK_EMU_GetList, ahead of picking one with SetTargetSerialNumber.
type JLinkDeviceInfo struct {
	SerialNumber    uint32
	ProductName     string
	FirmwareVersion string
	IsUSB           bool
}

// emuInfo field layout, matching the JLINKARM_EMU_INFO struct JLINK_EMU_GetList
// fills in (SerialNumber, Connection, USBAddr u32; aIPAddr[16]; Time int32;
// Time_us u64; HWVersion u32; abMACAddr[6]; acProduct[32]; acNickname[32];
// acFWString[112]; aDummy[32]), rounded up to the structure's 8-byte alignment.
const (
	emuInfoSize            = 264
	emuInfoOffSerialNumber = 0
	emuInfoOffConnection   = 4
	emuInfoOffProduct      = 50
	emuInfoLenProduct      = 32
	emuInfoOffFirmware     = 114
	emuInfoLenFirmware     = 112
)

// NewVendorAdapter builds a vendor backend; the library itself is located
// lazily on Open via FindVendorLibrary.
func NewVendorAdapter() *VendorAdapter {
	return &VendorAdapter{clockHz: 1_000_000}
}

func (a *VendorAdapter) Open() error {
	path, err := FindVendorLibrary()
	if err != nil {
		return fmt.Errorf("jtagio: locate vendor library: %w", err)
	}
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("jtagio: load vendor library %s: %w", path, err)
	}

	purego.RegisterLibFunc(&a.openEx, lib, "JLINK_OpenEx")
	purego.RegisterLibFunc(&a.closeFn, lib, "JLINK_Close")
	purego.RegisterLibFunc(&a.jtagStoreRaw, lib, "JLINK_JTAG_StoreRaw")
	purego.RegisterLibFunc(&a.jtagStoreGetRaw, lib, "JLINK_JTAG_StoreGetRaw")
	purego.RegisterLibFunc(&a.jtagSyncBits, lib, "JLINK_JTAG_SyncBits")
	purego.RegisterLibFunc(&a.setSpeed, lib, "JLINK_SetSpeed")
	purego.RegisterLibFunc(&a.emuSelectByUSBSN, lib, "JLINK_EMU_SelectByUSBSN")
	purego.RegisterLibFunc(&a.emuGetList, lib, "JLINK_EMU_GetList")

	a.lib = lib
	a.libPath = path

	if a.targetSerialNo != 0 {
		if a.emuSelectByUSBSN(a.targetSerialNo) < 0 {
			return fmt.Errorf("jtagio: no J-Link with serial number %d", a.targetSerialNo)
		}
	}

	if res := a.openEx(0, 0); res != 0 {
		return fmt.Errorf("jtagio: JLINK_OpenEx failed")
	}
	a.connected = true
	a.setSpeed(a.clockHz / 1000)
	return nil
}

func (a *VendorAdapter) Close() error {
	if a.connected {
		a.closeFn()
	}
	a.connected = false
	return nil
}

func (a *VendorAdapter) IsConnected() bool { return a.connected }

// SetTargetSerialNumber pins the probe selected on the next Open. Zero (the
// default) means "first available device". Call EnumerateJLinkDevices first
// to discover which serial numbers are actually attached.
func (a *VendorAdapter) SetTargetSerialNumber(serial uint32) {
	a.targetSerialNo = serial
}

// EnumerateJLinkDevices lists every USB-connected J-Link the vendor library
// can see, via JLINK_EMU_GetList. It loads the library fresh rather than
// requiring an open adapter, matching the original driver's static
// enumeration method, so a caller can list probes before picking one with
// SetTargetSerialNumber.
func EnumerateJLinkDevices() ([]JLinkDeviceInfo, error) {
	path, err := FindVendorLibrary()
	if err != nil {
		return nil, fmt.Errorf("jtagio: locate vendor library: %w", err)
	}
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("jtagio: load vendor library %s: %w", path, err)
	}

	var getList func(interfaceMask uint32, buf uintptr, maxInfos uint32) uint32
	purego.RegisterLibFunc(&getList, lib, "JLINK_EMU_GetList")

	const usbOnly = 1
	count := getList(usbOnly, 0, 0)
	if count == 0 {
		return nil, nil
	}

	buf := make([]byte, int(count)*emuInfoSize)
	retrieved := getList(usbOnly, ptrOf(buf), count)
	if retrieved > count {
		retrieved = count
	}

	devices := make([]JLinkDeviceInfo, 0, retrieved)
	for i := uint32(0); i < retrieved; i++ {
		entry := buf[int(i)*emuInfoSize : int(i+1)*emuInfoSize]
		devices = append(devices, parseEmuInfo(entry))
	}
	return devices, nil
}

func parseEmuInfo(entry []byte) JLinkDeviceInfo {
	serial := binary.LittleEndian.Uint32(entry[emuInfoOffSerialNumber : emuInfoOffSerialNumber+4])
	connection := binary.LittleEndian.Uint32(entry[emuInfoOffConnection : emuInfoOffConnection+4])
	product := entry[emuInfoOffProduct : emuInfoOffProduct+emuInfoLenProduct]
	firmware := entry[emuInfoOffFirmware : emuInfoOffFirmware+emuInfoLenFirmware]
	return JLinkDeviceInfo{
		SerialNumber:    serial,
		ProductName:     cString(product),
		FirmwareVersion: cString(firmware),
		IsUSB:           connection == 0,
	}
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func (a *VendorAdapter) SetClockSpeed(hz uint32) error {
	if !a.connected {
		return ErrNotConnected
	}
	a.setSpeed(hz / 1000)
	a.clockHz = hz
	return nil
}

func (a *VendorAdapter) GetClockSpeed() uint32 { return a.clockHz }

func (a *VendorAdapter) WriteTMS(tms []bool) error {
	if !a.connected {
		return ErrNotConnected
	}
	numBits := uint32(len(tms))
	tmsBytes := packBits(tms)
	tdiBytes := make([]byte, len(tmsBytes))
	if a.jtagStoreRaw(ptrOf(tdiBytes), ptrOf(tmsBytes), numBits) < 0 {
		return fmt.Errorf("jtagio: JLINK_JTAG_StoreRaw failed")
	}
	a.jtagSyncBits()
	return nil
}

func (a *VendorAdapter) ShiftData(tdi []byte, numBits int, exitShift bool) ([]byte, error) {
	if !a.connected {
		return nil, ErrNotConnected
	}
	tms := make([]bool, numBits)
	if exitShift && numBits > 0 {
		tms[numBits-1] = true
	}
	tmsBytes := packBits(tms)
	tdo := make([]byte, (numBits+7)/8)
	if a.jtagStoreGetRaw(ptrOf(tdi), ptrOf(tdo), ptrOf(tmsBytes), uint32(numBits)) < 0 {
		return nil, fmt.Errorf("jtagio: JLINK_JTAG_StoreGetRaw failed")
	}
	a.jtagSyncBits()
	return tdo, nil
}

func (a *VendorAdapter) ResetTAP() error {
	if !a.connected {
		return ErrNotConnected
	}
	return a.WriteTMS([]bool{true, true, true, true, true, false})
}

// ScanIR/ScanDR drive the "safety zero" navigation path: a leading TMS=0
// settles either Test-Logic-Reset or Run-Test/Idle into Run-Test/Idle, then
// the minimal Select-IR/DR-Scan -> Shift path follows. Five TMS=1 (reset) is
// never driven here.
func (a *VendorAdapter) ScanIR(irLen int, dataIn []byte) ([]byte, error) {
	if err := a.WriteTMS([]bool{false, true, true, false, false}); err != nil { // ->RunTestIdle->SelectDR->SelectIR->CaptureIR->ShiftIR
		return nil, err
	}
	out, err := a.ShiftData(dataIn, irLen, true)
	if err != nil {
		return nil, err
	}
	if err := a.WriteTMS([]bool{true, false}); err != nil { // Exit1IR->UpdateIR->RunTestIdle
		return nil, err
	}
	return out, nil
}

func (a *VendorAdapter) ScanDR(drLen int, dataIn []byte) ([]byte, error) {
	if err := a.WriteTMS([]bool{false, true, false, false}); err != nil { // ->RunTestIdle->SelectDR->CaptureDR->ShiftDR
		return nil, err
	}
	out, err := a.ShiftData(dataIn, drLen, true)
	if err != nil {
		return nil, err
	}
	if err := a.WriteTMS([]bool{true, false}); err != nil { // Exit1DR->UpdateDR->RunTestIdle
		return nil, err
	}
	return out, nil
}

func (a *VendorAdapter) ReadIDCODE() (uint32, error) {
	out, err := a.ScanDR(32, make([]byte, 4))
	if err != nil {
		return 0, err
	}
	if len(out) < 4 {
		return 0, fmt.Errorf("jtagio: readIDCODE short reply")
	}
	return uint32(out[0]) | uint32(out[1])<<8 | uint32(out[2])<<16 | uint32(out[3])<<24, nil
}

func (a *VendorAdapter) Info() Info {
	return Info{Name: "SEGGER J-Link", Kind: "vendor", Serial: fmt.Sprintf("%d", a.targetSerialNo)}
}

func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// --- Vendor library discovery -------------------------------------------
//
// Mirrors the original driver's tiered search: an in-memory cache, then an
// on-disk cache file valid for 24h, then the executable's own directory,
// then PATH, then well-known vendor install directories (one level deep),
// then a bounded recursive filesystem search (max depth 10, 60s timeout),
// skipping a small blacklist of system directories that are never worth
// scanning.

var (
	vendorCacheMu   sync.Mutex
	vendorCachePath string
	vendorCacheAt   time.Time
)

const vendorCacheTTL = 24 * time.Hour

type onDiskVendorCache struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

func vendorLibraryName() string {
	switch runtime.GOOS {
	case "windows":
		return "JLinkARM.dll"
	case "darwin":
		return "libjlinkarm.dylib"
	default:
		return "libjlinkarm.so"
	}
}

func vendorCacheFilePath() string {
	return filepath.Join(os.TempDir(), "jtagscan-jlink-cache.json")
}

var vendorSearchBlacklist = map[string]bool{
	"/proc": true,
	"/sys":  true,
	"/dev":  true,
}

// FindVendorLibrary locates the SEGGER J-Link dynamic library using the
// tiered strategy above, caching the winning path for subsequent calls.
func FindVendorLibrary() (string, error) {
	vendorCacheMu.Lock()
	if vendorCachePath != "" && time.Since(vendorCacheAt) < vendorCacheTTL {
		path := vendorCachePath
		vendorCacheMu.Unlock()
		if fileExists(path) {
			return path, nil
		}
	} else {
		vendorCacheMu.Unlock()
	}

	if cache, ok := loadVendorCacheFile(); ok && fileExists(cache.Path) {
		rememberVendorPath(cache.Path)
		return cache.Path, nil
	}

	name := vendorLibraryName()

	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), name)
		if fileExists(candidate) {
			rememberVendorPath(candidate)
			return candidate, nil
		}
	}

	if path, err := findOnPATH(name); err == nil {
		rememberVendorPath(path)
		return path, nil
	}

	for _, dir := range wellKnownVendorDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			candidate := filepath.Join(dir, entry.Name(), name)
			if fileExists(candidate) {
				rememberVendorPath(candidate)
				return candidate, nil
			}
		}
	}

	if path, err := searchRecursive(rootSearchDirs(), name, 10, 60*time.Second); err == nil {
		rememberVendorPath(path)
		return path, nil
	}

	return "", fmt.Errorf("jtagio: %s not found", name)
}

func rememberVendorPath(path string) {
	vendorCacheMu.Lock()
	vendorCachePath = path
	vendorCacheAt = time.Now()
	vendorCacheMu.Unlock()
	saveVendorCacheFile(path)
}

func loadVendorCacheFile() (onDiskVendorCache, bool) {
	data, err := os.ReadFile(vendorCacheFilePath())
	if err != nil {
		return onDiskVendorCache{}, false
	}
	var cache onDiskVendorCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return onDiskVendorCache{}, false
	}
	if time.Since(cache.Timestamp) > vendorCacheTTL {
		return onDiskVendorCache{}, false
	}
	return cache, true
}

func saveVendorCacheFile(path string) {
	data, err := json.Marshal(onDiskVendorCache{Path: path, Timestamp: time.Now()})
	if err != nil {
		return
	}
	_ = os.WriteFile(vendorCacheFilePath(), data, 0o644)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func findOnPATH(name string) (string, error) {
	return lookPathCompat(name)
}

func wellKnownVendorDirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{`C:\Program Files (x86)\SEGGER`, `C:\Program Files\SEGGER`}
	case "darwin":
		return []string{"/Applications/SEGGER", "/usr/local/share/SEGGER"}
	default:
		return []string{"/opt/SEGGER", "/usr/local/share/SEGGER"}
	}
}

func rootSearchDirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{`C:\`}
	default:
		return []string{"/opt", "/usr/local", "/home"}
	}
}

func searchRecursive(roots []string, name string, maxDepth int, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	var found string
	for _, root := range roots {
		if found != "" {
			break
		}
		walkDepth(root, name, maxDepth, deadline, &found)
	}
	if found == "" {
		return "", fmt.Errorf("jtagio: recursive search exhausted without finding %s", name)
	}
	return found, nil
}

func walkDepth(dir, name string, depthLeft int, deadline time.Time, found *string) {
	if *found != "" || depthLeft < 0 || time.Now().After(deadline) {
		return
	}
	if vendorSearchBlacklist[dir] {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if *found != "" || time.Now().After(deadline) {
			return
		}
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			walkDepth(full, name, depthLeft-1, deadline, found)
			continue
		}
		if entry.Name() == name {
			*found = full
			return
		}
	}
}
