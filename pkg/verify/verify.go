// pkg/verify/verify.go
package verify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/creativeyann17/go-chunkflate/internal/codec"
	"github.com/creativeyann17/go-chunkflate/internal/ledger"
	"github.com/creativeyann17/go-chunkflate/pkg/chunkflate"
	"github.com/zeebo/blake3"
)

// ProgressCallback is called for progress updates during verification
type ProgressCallback func(event ProgressEvent)

// ProgressEvent contains progress information
type ProgressEvent struct {
	Type         EventType
	Index        int
	Current      int
	Total        int
	CurrentBytes uint64
	TotalBytes   uint64
	BytesRead    uint64 // Output bytes consumed so far
	Message      string
}

// EventType indicates the type of progress event
type EventType int

const (
	EventStart EventType = iota
	EventChunkVerify
	EventComplete
	EventError
)

// Verify checks a compressed output against the latest ledger run for its
// input. Findings go to Result.Errors; the returned error is reserved for
// failures that stop verification itself (unreadable files, cancellation).
func Verify(ctx context.Context, opts *Options, progressCb ProgressCallback) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	led, err := ledger.Load(opts.MetadataPath)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	run, ok := led.Latest(opts.InputID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRun, opts.InputID)
	}

	result := &Result{
		OutputPath:    opts.OutputPath,
		MetadataPath:  opts.MetadataPath,
		InputID:       opts.InputID,
		Run:           run,
		ChunkCount:    len(run.Chunks),
		ChunkSize:     run.RequestedChunkSize,
		TotalCompSize: run.CompressedSize(),
	}
	for _, c := range run.Chunks {
		result.TotalOrigSize += c.UncompressedSize
	}

	if err := run.Validate(); err != nil {
		result.Errors = append(result.Errors, err)
	} else {
		result.RunValid = true
	}

	out, err := os.Open(opts.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	defer out.Close()

	stat, err := out.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat output: %w", err)
	}
	result.OutputSize = uint64(stat.Size())

	if result.OutputSize == result.TotalCompSize {
		result.SizeValid = true
	} else {
		result.Errors = append(result.Errors, fmt.Errorf("%w: output has %d bytes, ledger expects %d",
			ErrSizeMismatch, result.OutputSize, result.TotalCompSize))
	}
	result.StructureValid = result.RunValid && result.SizeValid

	if progressCb != nil {
		progressCb(ProgressEvent{
			Type:       EventStart,
			Total:      result.ChunkCount,
			TotalBytes: result.OutputSize,
			Message:    fmt.Sprintf("Verifying %d chunks", result.ChunkCount),
		})
	}

	// Sizes from an inconsistent run cannot be trusted for allocation
	if opts.VerifyData && result.RunValid {
		if err := verifyData(ctx, out, opts, result, progressCb); err != nil {
			if progressCb != nil {
				progressCb(ProgressEvent{Type: EventError, Message: err.Error()})
			}
			return result, err
		}
	}

	opts.Logger.Debug("verification finished",
		"output", opts.OutputPath,
		"chunks", result.ChunkCount,
		"verified", result.ChunksVerified,
		"errors", len(result.Errors),
	)

	if progressCb != nil {
		progressCb(ProgressEvent{
			Type:    EventComplete,
			Current: result.ChunksVerified,
			Total:   result.ChunkCount,
			Message: "Verification complete",
		})
	}

	return result, nil
}

// verifyData decompresses every chunk in order and checks size, digest and
// optionally the original input bytes
func verifyData(ctx context.Context, out io.Reader, opts *Options, result *Result, progressCb ProgressCallback) error {
	result.DataVerified = true

	var input *bufio.Reader
	if opts.CompareInput {
		f, err := os.Open(opts.InputPath)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		input = bufio.NewReader(f)
		result.InputCompared = true
		result.InputMatches = true
	}

	var bytesRead uint64
	reader := &chunkflate.ProgressReader{
		Reader: bufio.NewReaderSize(out, 1<<20),
		OnRead: func(n int) { bytesRead += uint64(n) },
	}

	c := codec.New()
	var compressed, original []byte
	var offset uint64

	for i, chunk := range result.Run.Chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		info := ChunkInfo{
			Index:          i,
			Offset:         offset,
			OriginalSize:   chunk.UncompressedSize,
			CompressedSize: chunk.CompressedSize,
			Strategy:       chunk.Strategy,
		}
		offset += chunk.CompressedSize

		truncated := chunk.CompressedSize > result.OutputSize-info.Offset
		if !truncated {
			compressed = grow(compressed, chunk.CompressedSize)
			_, err := io.ReadFull(reader, compressed)
			truncated = err != nil
		}
		if truncated {
			info.Error = fmt.Errorf("chunk %d: %w", i, ErrTruncatedOutput)
			result.Errors = append(result.Errors, info.Error)
			result.CorruptChunks++
			result.Chunks = append(result.Chunks, info)
			if input != nil {
				result.InputMatches = false
			}
			break
		}

		data, err := c.Decompress(compressed, chunk.Strategy, int(chunk.UncompressedSize))
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrCorruptData, err)
		} else if chunk.Hash != "" {
			sum := blake3.Sum256(data)
			if !strings.EqualFold(hex.EncodeToString(sum[:]), chunk.Hash) {
				err = fmt.Errorf("%w: digest mismatch", ErrCorruptData)
			} else {
				result.HashesChecked++
			}
		}

		if err != nil {
			info.Error = fmt.Errorf("chunk %d: %w", i, err)
			result.Errors = append(result.Errors, info.Error)
			result.CorruptChunks++
			if opts.Verbose {
				opts.Logger.Debug("chunk failed verification", "chunk", i, "strategy", chunk.Strategy.String(), "error", err)
			}
		} else {
			info.DataValid = true
			result.ChunksVerified++
		}

		if input != nil {
			original = grow(original, chunk.UncompressedSize)
			if _, rerr := io.ReadFull(input, original); rerr != nil {
				result.InputMatches = false
				result.Errors = append(result.Errors, fmt.Errorf("chunk %d: %w: input is shorter than recorded", i, ErrInputMismatch))
			} else if err == nil && !bytes.Equal(original, data) {
				result.InputMatches = false
				result.Errors = append(result.Errors, fmt.Errorf("chunk %d: %w", i, ErrInputMismatch))
			}
		}

		result.Chunks = append(result.Chunks, info)

		if progressCb != nil {
			progressCb(ProgressEvent{
				Type:         EventChunkVerify,
				Index:        i,
				Current:      i + 1,
				Total:        result.ChunkCount,
				CurrentBytes: chunk.CompressedSize,
				TotalBytes:   result.OutputSize,
				BytesRead:    bytesRead,
			})
		}
	}

	if input != nil && result.InputMatches {
		if _, err := input.ReadByte(); !errors.Is(err, io.EOF) {
			result.InputMatches = false
			result.Errors = append(result.Errors, fmt.Errorf("%w: input is longer than recorded", ErrInputMismatch))
		}
	}

	return nil
}

func grow(buf []byte, n uint64) []byte {
	if uint64(cap(buf)) < n {
		return make([]byte, n)
	}
	return buf[:n]
}
