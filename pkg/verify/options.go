// pkg/verify/options.go
package verify

import (
	"io"
	"log/slog"
)

// Options configures the verify operation
type Options struct {
	// OutputPath is the compressed output to verify (required)
	OutputPath string

	// MetadataPath is the ledger describing the output (required)
	MetadataPath string

	// InputID is the ledger key of the run to check
	// Default: InputPath
	InputID string

	// InputPath is the original input, read when CompareInput is set
	// Default: InputID
	InputPath string

	// VerifyData decompresses every chunk and checks its size and digest.
	// When false, only the ledger and output sizes are checked (faster)
	// Default: false
	VerifyData bool

	// CompareInput also compares restored chunks with the original input.
	// Implies VerifyData.
	CompareInput bool

	// Verbose adds a debug record per verified chunk
	Verbose bool

	// Logger receives diagnostics (optional)
	Logger *slog.Logger
}

// Validate checks if options are valid
func (o *Options) Validate() error {
	if o.OutputPath == "" {
		return ErrOutputRequired
	}
	if o.MetadataPath == "" {
		return ErrMetadataRequired
	}
	if o.InputID == "" && o.InputPath == "" {
		return ErrInputRequired
	}
	if o.InputID == "" {
		o.InputID = o.InputPath
	}
	if o.InputPath == "" {
		o.InputPath = o.InputID
	}
	if o.CompareInput {
		o.VerifyData = true
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return nil
}
