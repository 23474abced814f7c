// pkg/verify/errors.go
package verify

import "errors"

var (
	// ErrInputRequired is returned when neither the input identifier nor path is given
	ErrInputRequired = errors.New("input identifier is required")

	// ErrOutputRequired is returned when the compressed output path is not specified
	ErrOutputRequired = errors.New("output path is required")

	// ErrMetadataRequired is returned when the ledger path is not specified
	ErrMetadataRequired = errors.New("metadata path is required")

	// ErrNoRun is returned when the ledger holds no run for the input
	ErrNoRun = errors.New("no run recorded for input")

	// ErrSizeMismatch is returned when the output size disagrees with the ledger
	ErrSizeMismatch = errors.New("output size does not match ledger")

	// ErrTruncatedOutput is returned when the output ends before the last chunk
	ErrTruncatedOutput = errors.New("output appears truncated")

	// ErrCorruptData is returned when a decompressed chunk fails its integrity check
	ErrCorruptData = errors.New("data corruption detected")

	// ErrInputMismatch is returned when restored data differs from the original input
	ErrInputMismatch = errors.New("restored data differs from input")
)
