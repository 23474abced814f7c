// pkg/verify/result.go
package verify

import (
	"fmt"

	"github.com/creativeyann17/go-chunkflate/internal/codec"
	"github.com/creativeyann17/go-chunkflate/internal/ledger"
	"github.com/creativeyann17/go-chunkflate/pkg/chunkflate"
)

// Result contains comprehensive verification results
type Result struct {
	OutputPath   string // Path to the verified output
	MetadataPath string // Path to the ledger
	InputID      string // Ledger key of the checked run
	OutputSize   uint64 // Output file size in bytes

	// Run is the ledger record that was checked
	Run ledger.RunRecord

	// Chunk statistics from the ledger
	ChunkCount    int
	ChunkSize     uint64
	TotalOrigSize uint64
	TotalCompSize uint64

	// Structural integrity
	RunValid       bool // Run record is internally consistent
	SizeValid      bool // Output size equals the sum of compressed chunk sizes
	StructureValid bool

	// Data integrity (only populated when VerifyData=true)
	DataVerified   bool
	ChunksVerified int
	CorruptChunks  int
	HashesChecked  int // Chunks with a recorded digest that was compared

	// Input comparison (only populated when CompareInput=true)
	InputCompared bool
	InputMatches  bool

	// Chunk details (populated when VerifyData=true)
	Chunks []ChunkInfo

	// Errors encountered during verification
	Errors []error
}

// ChunkInfo contains information about a single chunk of the output
type ChunkInfo struct {
	Index          int
	Offset         uint64 // Offset in the output
	OriginalSize   uint64
	CompressedSize uint64
	Strategy       codec.Strategy
	DataValid      bool
	Error          error
}

// CompressionRatio returns the compression ratio as a percentage
func (r *Result) CompressionRatio() float64 {
	if r.TotalOrigSize == 0 {
		return 0
	}
	return float64(r.TotalCompSize) / float64(r.TotalOrigSize) * 100
}

// SpaceSaved returns bytes saved by compression
func (r *Result) SpaceSaved() uint64 {
	if r.TotalCompSize >= r.TotalOrigSize {
		return 0
	}
	return r.TotalOrigSize - r.TotalCompSize
}

// SpaceSavedRatio returns percentage of space saved
func (r *Result) SpaceSavedRatio() float64 {
	if r.TotalOrigSize == 0 {
		return 0
	}
	return float64(r.SpaceSaved()) / float64(r.TotalOrigSize) * 100
}

// IsValid returns true if the output passed all validation checks
func (r *Result) IsValid() bool {
	valid := r.StructureValid && len(r.Errors) == 0 && r.CorruptChunks == 0
	if r.InputCompared {
		valid = valid && r.InputMatches
	}
	return valid
}

// Success returns true if verification completed without critical errors
func (r *Result) Success() bool {
	return r.IsValid()
}

var _ chunkflate.Result = (*Result)(nil)

func (r *Result) GetChunksTotal() int       { return r.ChunkCount }
func (r *Result) GetChunksProcessed() int   { return r.ChunksVerified }
func (r *Result) GetErrors() []error        { return r.Errors }
func (r *Result) GetOriginalSize() uint64   { return r.TotalOrigSize }
func (r *Result) GetCompressedSize() uint64 { return r.TotalCompSize }

// Summary returns a human-readable summary of the verification result
func (r *Result) Summary() string {
	status := "VALID"
	if !r.IsValid() {
		status = "INVALID"
	}

	s := fmt.Sprintf("Output: %s [%s]\n", r.OutputPath, status)
	s += fmt.Sprintf("Input:  %s\n", r.InputID)
	s += fmt.Sprintf("Size:   %s\n", chunkflate.FormatSize(r.OutputSize))
	s += fmt.Sprintf("Chunks: %d x %s\n", r.ChunkCount, chunkflate.FormatSize(r.ChunkSize))

	if r.TotalOrigSize > 0 {
		s += fmt.Sprintf("Original:   %s\n", chunkflate.FormatSize(r.TotalOrigSize))
		s += fmt.Sprintf("Compressed: %s (%.1f%% ratio)\n",
			chunkflate.FormatSize(r.TotalCompSize), r.CompressionRatio())
		s += fmt.Sprintf("Saved:      %s (%.1f%%)\n",
			chunkflate.FormatSize(r.SpaceSaved()), r.SpaceSavedRatio())
	}

	if r.DataVerified {
		s += "\nData Integrity:\n"
		s += fmt.Sprintf("  Chunks Verified: %d/%d\n", r.ChunksVerified, r.ChunkCount)
		if r.HashesChecked > 0 {
			s += fmt.Sprintf("  Digests Checked: %d\n", r.HashesChecked)
		}
		if r.CorruptChunks > 0 {
			s += fmt.Sprintf("  Corrupt Chunks:  %d\n", r.CorruptChunks)
		}
		if r.InputCompared {
			match := "yes"
			if !r.InputMatches {
				match = "no"
			}
			s += fmt.Sprintf("  Matches Input:   %s\n", match)
		}
	}

	if len(r.Errors) > 0 {
		s += fmt.Sprintf("\nErrors (%d):\n", len(r.Errors))
		for i, err := range r.Errors {
			if i >= 10 {
				s += fmt.Sprintf("  ... and %d more errors\n", len(r.Errors)-10)
				break
			}
			s += fmt.Sprintf("  - %v\n", err)
		}
	}

	return s
}
