//go:build windows

package ledger

// syncDir is a no-op; directories cannot be fsynced on Windows
func syncDir(dir string) error { return nil }
