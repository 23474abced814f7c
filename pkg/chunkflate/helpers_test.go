// pkg/chunkflate/helpers_test.go
package chunkflate_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/creativeyann17/go-chunkflate/pkg/chunkflate"
)

type fakeResult struct {
	total, processed int
	errs             []error
	orig, comp       uint64
}

func (r fakeResult) GetChunksTotal() int       { return r.total }
func (r fakeResult) GetChunksProcessed() int   { return r.processed }
func (r fakeResult) GetErrors() []error        { return r.errs }
func (r fakeResult) GetOriginalSize() uint64   { return r.orig }
func (r fakeResult) GetCompressedSize() uint64 { return r.comp }
func (r fakeResult) Success() bool             { return len(r.errs) == 0 }

func TestFormatSummary(t *testing.T) {
	result := fakeResult{total: 3, processed: 3, orig: 10000, comp: 2500}

	summary := chunkflate.FormatSummary(result, chunkflate.OperationCompress, false)
	for _, want := range []string{"Chunks processed: 3 / 3", "9.8 KiB", "Ratio:            25.0%"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary missing %q:\n%s", want, summary)
		}
	}
	if strings.Contains(summary, "Dry run") {
		t.Error("Summary should not mention dry run")
	}

	summary = chunkflate.FormatSummary(result, chunkflate.OperationCompress, true)
	if !strings.Contains(summary, "(estimated)") || !strings.Contains(summary, "Dry run complete") {
		t.Errorf("Dry-run summary incomplete:\n%s", summary)
	}

	result.errs = []error{errors.New("chunk 2 failed")}
	summary = chunkflate.FormatSummary(result, chunkflate.OperationVerify, false)
	if !strings.HasPrefix(summary, "Completed with 1 errors:") || !strings.Contains(summary, "Decompressed size") {
		t.Errorf("Verify summary incomplete:\n%s", summary)
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[uint64]string{
		0:       "0 B",
		1023:    "1023 B",
		4096:    "4.0 KiB",
		1 << 30: "1.0 GiB",
	}
	for in, want := range tests {
		if got := chunkflate.FormatSize(in); got != want {
			t.Errorf("FormatSize(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncateLeft(t *testing.T) {
	if got := chunkflate.TruncateLeft("short", 30); got != "short" {
		t.Errorf("Expected unchanged label, got %q", got)
	}

	got := chunkflate.TruncateLeft("/very/long/directory/structure/data.img", 20)
	if len(got) != 20 || !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "data.img") {
		t.Errorf("Unexpected truncation: %q", got)
	}
}

func TestCountingIO(t *testing.T) {
	var total int
	reader := &chunkflate.ProgressReader{
		Reader: strings.NewReader(strings.Repeat("x", 5000)),
		OnRead: func(n int) { total += n },
	}

	var buf bytes.Buffer
	writer := &chunkflate.CountingWriter{Writer: &buf}
	if _, err := io.Copy(writer, reader); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if total != 5000 || writer.Count != 5000 || buf.Len() != 5000 {
		t.Errorf("Expected 5000 bytes everywhere, got read=%d counted=%d buffered=%d", total, writer.Count, buf.Len())
	}

	discard := &chunkflate.DiscardCounter{}
	_, _ = discard.Write(make([]byte, 123))
	_, _ = discard.Write(nil)
	if discard.Count != 123 {
		t.Errorf("Expected 123 bytes counted, got %d", discard.Count)
	}
}
