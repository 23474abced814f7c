// internal/chunker/chunker.go
package chunker

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/zeebo/blake3"
)

var (
	// ErrInvalidChunkSize is returned when the requested chunk size is zero
	ErrInvalidChunkSize = errors.New("chunk size must be greater than zero")

	// ErrShortRead is returned when the input ends before a planned chunk boundary
	ErrShortRead = errors.New("input ended before planned chunk boundary")
)

// Plan describes how an input of known size is cut into fixed-size chunks.
// Every chunk has ChunkSize bytes except possibly the last one, which holds
// the remainder.
type Plan struct {
	totalSize   uint64
	chunkSize   uint64
	wholeChunks uint64
	remainder   uint64
}

// NewPlan computes the chunk layout for totalSize bytes
func NewPlan(totalSize, chunkSize uint64) (Plan, error) {
	if chunkSize == 0 {
		return Plan{}, ErrInvalidChunkSize
	}
	return Plan{
		totalSize:   totalSize,
		chunkSize:   chunkSize,
		wholeChunks: totalSize / chunkSize,
		remainder:   totalSize % chunkSize,
	}, nil
}

// TotalSize returns the planned input size
func (p Plan) TotalSize() uint64 { return p.totalSize }

// ChunkSize returns the requested chunk size
func (p Plan) ChunkSize() uint64 { return p.chunkSize }

// WholeChunkCount returns the number of full-size chunks
func (p Plan) WholeChunkCount() int { return int(p.wholeChunks) }

// RemainderSize returns the length of the trailing partial chunk (0 if none)
func (p Plan) RemainderSize() uint64 { return p.remainder }

// ChunkCount returns the total number of chunks
func (p Plan) ChunkCount() int {
	if p.remainder > 0 {
		return int(p.wholeChunks) + 1
	}
	return int(p.wholeChunks)
}

// ChunkLen returns the length of chunk i, or 0 when i is out of range
func (p Plan) ChunkLen(i int) uint64 {
	switch {
	case i < 0 || i >= p.ChunkCount():
		return 0
	case uint64(i) < p.wholeChunks:
		return p.chunkSize
	default:
		return p.remainder
	}
}

// Offset returns the byte offset of chunk i in the input
func (p Plan) Offset(i int) uint64 {
	if i <= 0 {
		return 0
	}
	if i >= p.ChunkCount() {
		return p.totalSize
	}
	return uint64(i) * p.chunkSize
}

// Chunk represents one planned slice of the input with its hash
type Chunk struct {
	Index    int
	Data     []byte
	Hash     [32]byte
	OrigSize uint64

	release func()
}

// Release hands the chunk buffer back to its reader's pool.
// Data must not be used afterwards.
func (c *Chunk) Release() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
	c.Data = nil
}

// Reader reads the chunks of a Plan sequentially from an io.Reader
type Reader struct {
	r    io.Reader
	plan Plan
	next int
	pool sync.Pool
}

// NewReader creates a chunk reader over r following plan
func NewReader(r io.Reader, plan Plan) *Reader {
	cr := &Reader{r: r, plan: plan}
	size := plan.ChunkSize()
	if size > plan.TotalSize() {
		size = plan.TotalSize()
	}
	cr.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return cr
}

// Plan returns the plan this reader follows
func (cr *Reader) Plan() Plan { return cr.plan }

// Next reads the next planned chunk. It returns io.EOF after the last one.
func (cr *Reader) Next() (Chunk, error) {
	if cr.next >= cr.plan.ChunkCount() {
		return Chunk{}, io.EOF
	}
	index := cr.next
	length := cr.plan.ChunkLen(index)

	bufPtr := cr.pool.Get().(*[]byte)
	data := (*bufPtr)[:length]

	if _, err := io.ReadFull(cr.r, data); err != nil {
		cr.pool.Put(bufPtr)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Chunk{}, fmt.Errorf("chunk %d at offset %d: %w", index, cr.plan.Offset(index), ErrShortRead)
		}
		return Chunk{}, fmt.Errorf("read chunk %d: %w", index, err)
	}
	cr.next++

	return Chunk{
		Index:    index,
		Data:     data,
		Hash:     blake3.Sum256(data),
		OrigSize: length,
		release:  func() { cr.pool.Put(bufPtr) },
	}, nil
}
