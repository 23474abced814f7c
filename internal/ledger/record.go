// internal/ledger/record.go
package ledger

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/creativeyann17/go-chunkflate/internal/codec"
)

// ChunkRecord is the winning outcome for one chunk. Field order is the
// serialized order.
type ChunkRecord struct {
	UncompressedSize uint64         `json:"chunk_size_uncompressed"`
	CompressedSize   uint64         `json:"chunk_size_compressed"`
	Strategy         codec.Strategy `json:"deflate_strategy"`
	Hash             string         `json:"blake3,omitempty"`
}

// MaxChunkSize bounds the requested chunk size a run may carry. A chunk is
// held in memory whole, both when compressing and when verifying.
const MaxChunkSize = 1 << 30

// RunRecord describes one compression run of a single input.
// Chunks are index-aligned with the chunk plan.
type RunRecord struct {
	// LegacyVersion is the version field written by the original XZCompress
	// tool. Kept as the literal number text so its ledgers survive a rewrite.
	LegacyVersion json.Number `json:"xzcompress_version,omitempty"`

	ToolVersion          string        `json:"tool_version,omitempty"`
	RequestedChunkSize   uint64        `json:"requested_chunk_size"`
	ChunkCount           int           `json:"number_of_chunks"`
	UncompressedFileSize uint64        `json:"uncompressed_file_size_in_bytes"`
	StrategySet          string        `json:"strategy_set,omitempty"`
	Chunks               []ChunkRecord `json:"chunks"`
}

// CompressedSize returns the sum of compressed chunk sizes, which is the
// size of the output file the run produced.
func (r RunRecord) CompressedSize() uint64 {
	var total uint64
	for _, c := range r.Chunks {
		total += c.CompressedSize
	}
	return total
}

// Equal reports whether two runs carry identical metadata
func (r RunRecord) Equal(other RunRecord) bool {
	return r.LegacyVersion == other.LegacyVersion &&
		r.ToolVersion == other.ToolVersion &&
		r.RequestedChunkSize == other.RequestedChunkSize &&
		r.ChunkCount == other.ChunkCount &&
		r.UncompressedFileSize == other.UncompressedFileSize &&
		r.StrategySet == other.StrategySet &&
		slices.Equal(r.Chunks, other.Chunks)
}

// Validate checks that the run is internally consistent: chunk count,
// chunk sizes against the requested size, and the file size.
func (r RunRecord) Validate() error {
	if r.RequestedChunkSize == 0 {
		return fmt.Errorf("%w: requested chunk size is zero", ErrInconsistentRun)
	}
	if r.RequestedChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: requested chunk size %d exceeds %d",
			ErrInconsistentRun, r.RequestedChunkSize, uint64(MaxChunkSize))
	}
	if r.ChunkCount != len(r.Chunks) {
		return fmt.Errorf("%w: number_of_chunks is %d but %d chunks are listed",
			ErrInconsistentRun, r.ChunkCount, len(r.Chunks))
	}

	var total uint64
	for i, c := range r.Chunks {
		if c.UncompressedSize == 0 || c.UncompressedSize > r.RequestedChunkSize {
			return fmt.Errorf("%w: chunk %d has uncompressed size %d", ErrInconsistentRun, i, c.UncompressedSize)
		}
		if i < len(r.Chunks)-1 && c.UncompressedSize != r.RequestedChunkSize {
			return fmt.Errorf("%w: chunk %d is not full size", ErrInconsistentRun, i)
		}
		if !c.Strategy.Valid() {
			return fmt.Errorf("%w: chunk %d has unknown strategy %d", ErrInconsistentRun, i, int8(c.Strategy))
		}
		total += c.UncompressedSize
	}

	// Older simplified records may omit the file size
	if r.UncompressedFileSize != 0 && total != r.UncompressedFileSize {
		return fmt.Errorf("%w: chunks sum to %d bytes, file size is %d",
			ErrInconsistentRun, total, r.UncompressedFileSize)
	}
	return nil
}
