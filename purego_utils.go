//go:build (darwin || linux) && !nox264

// Shared utilities for purego-based engine loading.

package videocast

import (
	"os"
	"path/filepath"
	"runtime"
	"unsafe"
)

// maxCStringLen bounds the scan for a terminator in library-owned strings.
const maxCStringLen = 1024

// goString copies the NUL-terminated C string at p into a Go string.
func goString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for n < maxCStringLen && *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// findSourceRoot returns the directory holding this source file, which is
// the module root when running from a checkout (tests, go run).
func findSourceRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return filepath.Dir(file)
}

// findModuleRoot walks up the directory tree from the current working directory
// to find the module root (directory containing go.mod).
func findModuleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
