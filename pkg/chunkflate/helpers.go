// pkg/chunkflate/helpers.go
package chunkflate

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// OperationType indicates whether the operation is compression or verification
type OperationType string

const (
	OperationCompress OperationType = "compress"
	OperationVerify   OperationType = "verify"
)

// ProgressEvent is a generic progress event shared by compress and verify
type ProgressEvent struct {
	Type         EventType
	Index        int
	Current      int64
	Total        int64
	CurrentBytes uint64
	TotalBytes   uint64
}

// EventType indicates the type of progress event
type EventType int

const (
	EventStart EventType = iota
	EventChunkStart
	EventChunkComplete
	EventComplete
	EventError
)

// Result is implemented by both compress and verify results
type Result interface {
	GetChunksTotal() int
	GetChunksProcessed() int
	GetErrors() []error
	GetOriginalSize() uint64
	GetCompressedSize() uint64
	Success() bool
}

// ProgressBarCallback creates a progress callback that renders a byte bar
// with a chunk counter. The callback may be called from several goroutines.
// Returns the callback function and the progress container (call Wait() after operation)
func ProgressBarCallback(label string) (func(ProgressEvent), *mpb.Progress) {
	progress := mpb.New(
		mpb.WithWidth(60),
		mpb.WithRefreshRate(100),
	)

	var bar *mpb.Bar
	var chunksDone atomic.Int64
	var chunksTotal int64

	callback := func(event ProgressEvent) {
		switch event.Type {
		case EventStart:
			// Empty inputs complete instantly; no bar
			if event.TotalBytes == 0 {
				return
			}
			chunksTotal = event.Total
			bar = progress.AddBar(int64(event.TotalBytes),
				mpb.PrependDecorators(
					decor.Name(TruncateLeft(label, 30), decor.WC{C: decor.DindentRight | decor.DextraSpace, W: 32}),
					decor.CountersKibiByte("% .1f / % .1f", decor.WC{W: 18}),
				),
				mpb.AppendDecorators(
					decor.Percentage(decor.WC{W: 5}),
					decor.Any(func(decor.Statistics) string {
						return fmt.Sprintf(" %d/%d chunks", chunksDone.Load(), chunksTotal)
					}),
				),
			)

		case EventChunkComplete:
			chunksDone.Add(1)
			if bar != nil {
				bar.IncrInt64(int64(event.CurrentBytes))
			}

		case EventComplete:
			if bar != nil {
				bar.SetTotal(-1, true)
			}

		case EventError:
			if bar != nil {
				bar.Abort(false)
			}
		}
	}

	return callback, progress
}

// FormatSummary formats a result into a human-readable summary string
func FormatSummary(result Result, operation OperationType, isDryRun bool) string {
	var sb strings.Builder

	errors := result.GetErrors()
	if len(errors) > 0 {
		fmt.Fprintf(&sb, "Completed with %d errors:\n", len(errors))
		for _, e := range errors {
			fmt.Fprintf(&sb, "  - %v\n", e)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Summary:\n")
	fmt.Fprintf(&sb, "  Chunks processed: %d / %d\n", result.GetChunksProcessed(), result.GetChunksTotal())

	if operation == OperationCompress {
		fmt.Fprintf(&sb, "  Original size:    %s\n", FormatSize(result.GetOriginalSize()))
		if isDryRun {
			fmt.Fprintf(&sb, "  Compressed size:  %s (estimated)\n", FormatSize(result.GetCompressedSize()))
		} else {
			fmt.Fprintf(&sb, "  Compressed size:  %s\n", FormatSize(result.GetCompressedSize()))
		}
		if result.GetOriginalSize() > 0 {
			ratio := float64(result.GetCompressedSize()) / float64(result.GetOriginalSize()) * 100
			fmt.Fprintf(&sb, "  Ratio:            %.1f%%\n", ratio)
		}
	} else {
		fmt.Fprintf(&sb, "  Compressed size:   %s\n", FormatSize(result.GetCompressedSize()))
		fmt.Fprintf(&sb, "  Decompressed size: %s\n", FormatSize(result.GetOriginalSize()))
	}

	if isDryRun {
		sb.WriteString("\nDry run complete - no data written.\n")
	}

	return sb.String()
}

// FormatSize formats bytes into a human-readable string
func FormatSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// TruncateLeft truncates a path from the left to fit maxLen, preserving the filename
func TruncateLeft(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	// Try to preserve at least the filename
	filename := filepath.Base(path)
	if len(filename) >= maxLen-3 {
		return "..." + filename[len(filename)-(maxLen-3):]
	}

	return "..." + path[len(path)-(maxLen-3):]
}
