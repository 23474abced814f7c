// pkg/compress/progress.go
package compress

import (
	"fmt"
	"slices"
	"strings"

	"github.com/creativeyann17/go-chunkflate/internal/codec"
	"github.com/creativeyann17/go-chunkflate/pkg/chunkflate"
	"github.com/vbauerster/mpb/v8"
)

// ProgressCallback is called for various progress events. It may be
// invoked from several goroutines at once.
type ProgressCallback func(event ProgressEvent)

// ProgressEvent contains progress information
type ProgressEvent struct {
	Type           EventType
	Index          int
	Current        int64
	Total          int64
	CurrentBytes   uint64
	TotalBytes     uint64
	CompressedSize uint64
	Strategy       codec.Strategy
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

// ProgressBarCallback creates a progress callback that displays a progress bar
// Returns the callback function and the progress container (call Wait() after compression)
func ProgressBarCallback(label string) (ProgressCallback, *mpb.Progress) {
	genericCb, progress := chunkflate.ProgressBarCallback(label)

	callback := func(event ProgressEvent) {
		genericCb(chunkflate.ProgressEvent{
			Type:         chunkflate.EventType(event.Type),
			Index:        event.Index,
			Current:      event.Current,
			Total:        event.Total,
			CurrentBytes: event.CurrentBytes,
			TotalBytes:   event.TotalBytes,
		})
	}

	return callback, progress
}

// FormatSummary formats a compression result into a human-readable summary string
func FormatSummary(result *Result) string {
	var sb strings.Builder

	sb.WriteString(chunkflate.FormatSummary(result, chunkflate.OperationCompress, result.DryRun))

	if len(result.StrategyWins) > 0 {
		sb.WriteString("\nStrategies:\n")
		strategies := make([]codec.Strategy, 0, len(result.StrategyWins))
		for s := range result.StrategyWins {
			strategies = append(strategies, s)
		}
		slices.Sort(strategies)
		for _, s := range strategies {
			fmt.Fprintf(&sb, "  %-13s %d\n", s.String()+":", result.StrategyWins[s])
		}
	}

	if result.CacheLookups > 0 {
		sb.WriteString("\nSelection cache:\n")
		fmt.Fprintf(&sb, "  Lookups:   %d\n", result.CacheLookups)
		fmt.Fprintf(&sb, "  Hits:      %d (%.1f%%)\n", result.CacheHits, result.CacheHitRatio())
		fmt.Fprintf(&sb, "  Entries:   %d\n", result.CacheEntries)
		if result.CacheEvictions > 0 {
			fmt.Fprintf(&sb, "  Evictions: %d (LRU cache)\n", result.CacheEvictions)
		}
	}

	if !result.DryRun {
		fmt.Fprintf(&sb, "\nOutput:   %s\nMetadata: %s\n", result.OutputPath, result.MetadataPath)
	}

	return sb.String()
}

// FormatSize formats bytes into human-readable string
func FormatSize(bytes uint64) string {
	return chunkflate.FormatSize(bytes)
}
