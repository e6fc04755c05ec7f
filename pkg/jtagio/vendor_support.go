package jtagio

import (
	"fmt"
	"os"
	"path/filepath"
	"unsafe"
)

// ptrOf returns a uintptr view of buf's backing array for passing to purego
// calls that expect raw pointers. buf must outlive the call.
func ptrOf(buf []byte) uintptr {
	if len(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}

// lookPathCompat scans the directories in PATH for a file named exactly
// name, without requiring the executable bit exec.LookPath demands (dynamic
// libraries are never executable on their own).
func lookPathCompat(name string) (string, error) {
	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("jtagio: %s not found on PATH", name)
}
