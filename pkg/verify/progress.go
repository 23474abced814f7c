// pkg/verify/progress.go
package verify

import (
	"github.com/creativeyann17/go-chunkflate/pkg/chunkflate"
	"github.com/vbauerster/mpb/v8"
)

// ProgressBarCallback creates a progress callback that displays a progress bar
// over the output bytes. Call Wait() on the container after verification.
func ProgressBarCallback(label string) (ProgressCallback, *mpb.Progress) {
	genericCb, progress := chunkflate.ProgressBarCallback(label)

	callback := func(event ProgressEvent) {
		generic := chunkflate.ProgressEvent{
			Index:        event.Index,
			Current:      int64(event.Current),
			Total:        int64(event.Total),
			CurrentBytes: event.CurrentBytes,
			TotalBytes:   event.TotalBytes,
		}
		switch event.Type {
		case EventStart:
			generic.Type = chunkflate.EventStart
		case EventChunkVerify:
			generic.Type = chunkflate.EventChunkComplete
		case EventComplete:
			generic.Type = chunkflate.EventComplete
		case EventError:
			generic.Type = chunkflate.EventError
		}
		genericCb(generic)
	}

	return callback, progress
}
