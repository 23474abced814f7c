// internal/ledger/atomic.go
package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

const ledgerPerm = 0o644

// writeAtomic replaces path with data through a temp file in the same
// directory, so readers see either the old or the new ledger.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, ledgerPerm)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write ledger: %w", err)
	}

	bw := bufio.NewWriter(tmp)
	if _, err := bw.Write(data); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp ledger: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace ledger: %w", err)
	}

	_ = syncDir(dir)
	return nil
}
