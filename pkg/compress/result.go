// pkg/compress/result.go
package compress

import (
	"github.com/creativeyann17/go-chunkflate/internal/codec"
	"github.com/creativeyann17/go-chunkflate/internal/ledger"
	"github.com/creativeyann17/go-chunkflate/pkg/chunkflate"
)

// Result contains statistics about the compression run
type Result struct {
	InputPath    string
	OutputPath   string
	MetadataPath string

	// Number of chunks in the plan
	ChunksTotal int

	// Number of chunks written to the output
	ChunksProcessed int

	// Total original size in bytes
	OriginalSize uint64

	// Total compressed size in bytes (estimated in dry-run mode)
	CompressedSize uint64

	// Winning strategy counts
	StrategyWins map[codec.Strategy]int

	// Chunks kept verbatim because nothing shrank them
	StoredChunks int

	// Selection cache statistics (zero when the cache is disabled)
	CacheLookups   uint64
	CacheHits      uint64
	CacheEvictions uint64
	CacheEntries   int

	DryRun bool

	// Run is the record written to the ledger
	Run ledger.RunRecord
}

// CompressionRatio returns the compression ratio as a percentage
func (r *Result) CompressionRatio() float64 {
	if r.OriginalSize == 0 {
		return 0
	}
	return float64(r.CompressedSize) / float64(r.OriginalSize) * 100
}

// CacheHitRatio returns the selection cache hit ratio as a percentage
func (r *Result) CacheHitRatio() float64 {
	if r.CacheLookups == 0 {
		return 0
	}
	return float64(r.CacheHits) / float64(r.CacheLookups) * 100
}

// Success returns true if every planned chunk was written
func (r *Result) Success() bool {
	return r.ChunksProcessed == r.ChunksTotal
}

var _ chunkflate.Result = (*Result)(nil)

func (r *Result) GetChunksTotal() int       { return r.ChunksTotal }
func (r *Result) GetChunksProcessed() int   { return r.ChunksProcessed }
func (r *Result) GetErrors() []error        { return nil }
func (r *Result) GetOriginalSize() uint64   { return r.OriginalSize }
func (r *Result) GetCompressedSize() uint64 { return r.CompressedSize }
