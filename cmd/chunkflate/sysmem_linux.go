//go:build linux

package main

import "golang.org/x/sys/unix"

// totalSystemMemory returns total system RAM in bytes (Linux)
func totalSystemMemory() (uint64, error) {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return 0, err
	}
	// Totalram is counted in units of Unit bytes
	return uint64(si.Totalram) * uint64(si.Unit), nil
}
