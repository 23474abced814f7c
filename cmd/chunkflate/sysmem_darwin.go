//go:build darwin

package main

import "golang.org/x/sys/unix"

// totalSystemMemory returns total system RAM in bytes (macOS)
func totalSystemMemory() (uint64, error) {
	return unix.SysctlUint64("hw.memsize")
}
