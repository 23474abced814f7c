// pkg/compress/errors.go
package compress

import (
	"errors"
	"fmt"
)

var (
	// ErrInputRequired is returned when input path is not specified
	ErrInputRequired = errors.New("input path is required")

	// ErrOutputRequired is returned when output path is not specified
	ErrOutputRequired = errors.New("output path is required")

	// ErrMetadataRequired is returned when the ledger path is not specified
	ErrMetadataRequired = errors.New("metadata path is required")

	// ErrInvalidChunkSize is returned when chunk size is zero or too large
	ErrInvalidChunkSize = errors.New("chunk size must be between 1 byte and 1 GiB")

	// ErrInvalidThreads is returned when the thread count is out of range
	ErrInvalidThreads = errors.New("threads must be between 1 and 1024")

	// ErrUnknownStrategySet is returned for an unknown strategy set name
	ErrUnknownStrategySet = errors.New("unknown strategy set")

	// ErrUnknownLedgerMode is returned for an unknown ledger mode
	ErrUnknownLedgerMode = errors.New("unknown ledger mode")

	// ErrInputNotRegular is returned when the input is a directory or device
	ErrInputNotRegular = errors.New("input is not a regular file")
)

// ChunkError reports the chunk at which a run failed. Chunks before Index
// were written; nothing after.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}
