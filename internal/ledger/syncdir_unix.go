//go:build !windows

package ledger

import "os"

// syncDir flushes directory metadata so the rename survives a crash
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
