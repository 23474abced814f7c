//go:build !linux && !darwin && !windows

package main

import "errors"

func totalSystemMemory() (uint64, error) {
	return 0, errors.New("system memory size unavailable on this platform")
}
