// internal/ledger/errors.go
package ledger

import "errors"

var (
	// ErrCorruptLedger is returned when an existing ledger cannot be parsed.
	// The file is never overwritten in that case.
	ErrCorruptLedger = errors.New("existing ledger is corrupt")

	// ErrEmptyInputID is returned when recording a run without an input identifier
	ErrEmptyInputID = errors.New("input identifier is required")

	// ErrUnknownMode is returned for an unknown record mode
	ErrUnknownMode = errors.New("unknown ledger mode")

	// ErrInconsistentRun is returned when a run record contradicts itself
	ErrInconsistentRun = errors.New("inconsistent run record")
)
