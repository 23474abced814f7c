// pkg/compress/options.go
package compress

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/creativeyann17/go-chunkflate/internal/codec"
	"github.com/creativeyann17/go-chunkflate/internal/ledger"
)

const (
	// MaxChunkSize bounds a single chunk so it always fits an in-memory buffer
	MaxChunkSize = ledger.MaxChunkSize

	// MaxThreadsLimit bounds the number of chunks in flight
	MaxThreadsLimit = 1024
)

// Options configures a compression run
type Options struct {
	// Input file path
	InputPath string

	// Output path receiving the concatenated compressed chunks
	OutputPath string

	// Metadata ledger path (.json, or .cbor for the binary ledger)
	MetadataPath string

	// InputID is the ledger key for this input
	// Default: InputPath exactly as given
	InputID string

	// Requested chunk size in bytes (required)
	ChunkSize uint64

	// Maximum number of chunks in flight, including chunks waiting to be
	// written in order. 1 reproduces strictly sequential processing.
	// Default: runtime.NumCPU()
	MaxThreads int

	// StrategySet selects the candidate strategies
	// Default: codec.SetDeflate
	StrategySet codec.Set

	// ParallelTrials runs the strategy trials of one chunk concurrently
	ParallelTrials bool

	// StoreRaw keeps a chunk verbatim when no strategy shrinks it
	// instead of failing the run
	StoreRaw bool

	// LedgerMode controls how a rerun on the same input is recorded
	// Default: ledger.ModeReplace
	LedgerMode ledger.Mode

	// SelectionCacheSize is the number of chunk winners remembered by
	// content hash. 0 disables the cache, negative means unbounded.
	SelectionCacheSize int

	// ToolVersion is recorded in every run
	// Default: "dev"
	ToolVersion string

	// DryRun runs selection without writing output or touching the ledger
	DryRun bool

	// Verbose adds a debug record per chunk to the run-level records
	Verbose bool

	// Logger receives diagnostics (optional)
	Logger *slog.Logger
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() *Options {
	return &Options{
		MaxThreads:  runtime.NumCPU(),
		StrategySet: codec.SetDeflate,
		LedgerMode:  ledger.ModeReplace,
		ToolVersion: "dev",
	}
}

// Validate checks if options are valid and fills in defaults
func (o *Options) Validate() error {
	if o.InputPath == "" {
		return ErrInputRequired
	}
	if o.OutputPath == "" && !o.DryRun {
		return ErrOutputRequired
	}
	if o.MetadataPath == "" && !o.DryRun {
		return ErrMetadataRequired
	}

	if o.ChunkSize == 0 || o.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, o.ChunkSize)
	}

	if o.MaxThreads == 0 {
		o.MaxThreads = runtime.NumCPU()
	}
	if o.MaxThreads < 0 || o.MaxThreads > MaxThreadsLimit {
		return fmt.Errorf("%w: %d", ErrInvalidThreads, o.MaxThreads)
	}

	if o.StrategySet == "" {
		o.StrategySet = codec.SetDeflate
	}
	if _, err := o.StrategySet.Strategies(); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownStrategySet, o.StrategySet)
	}

	mode, err := ledger.ParseMode(string(o.LedgerMode))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownLedgerMode, o.LedgerMode)
	}
	o.LedgerMode = mode

	if o.InputID == "" {
		o.InputID = o.InputPath
	}
	if o.ToolVersion == "" {
		o.ToolVersion = "dev"
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return nil
}
