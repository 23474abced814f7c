// internal/ledger/ledger_test.go
package ledger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creativeyann17/go-chunkflate/internal/codec"
)

func sampleRun(chunkSize uint64, sizes ...uint64) RunRecord {
	run := RunRecord{
		ToolVersion:        "test",
		RequestedChunkSize: chunkSize,
		StrategySet:        "deflate",
		Chunks:             []ChunkRecord{},
	}
	for i, size := range sizes {
		run.Chunks = append(run.Chunks, ChunkRecord{
			UncompressedSize: size,
			CompressedSize:   size / 10,
			Strategy:         codec.Strategy(i % 5),
		})
		run.UncompressedFileSize += size
	}
	run.ChunkCount = len(run.Chunks)
	return run
}

func TestLoadMissingFile(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("Expected empty ledger, got %d inputs", l.Len())
	}
}

func TestLoadCorruptLedger(t *testing.T) {
	cases := map[string]string{
		"garbage":  "this is not json",
		"array":    `[1, 2, 3]`,
		"scalar":   `{"in.bin": 42}`,
		"trailing": `{"in.bin": []} {}`,
		"truncate": `{"in.bin": [{"number_of_chunks": 1`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "meta.json")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("Failed to write ledger: %v", err)
			}
			if _, err := Load(path); !errors.Is(err, ErrCorruptLedger) {
				t.Errorf("Expected ErrCorruptLedger, got %v", err)
			}

			after, _ := os.ReadFile(path)
			if string(after) != content {
				t.Error("Corrupt ledger was modified by Load")
			}
		})
	}
}

func TestLoadOriginalToolLedger(t *testing.T) {
	content := `{
   "in.bin" : [
      {
         "chunks" : [
            {
               "chunk_size_compressed" : 20,
               "chunk_size_uncompressed" : 4096,
               "deflate_strategy" : 3
            }
         ],
         "number_of_chunks" : 1,
         "requested_chunk_size" : 4096,
         "uncompressed_file_size_in_bytes" : 4096,
         "xzcompress_version" : 1.0
      }
   ],
   // hand-edited note
   "other.bin" : {
      "number_of_chunks" : 0,
      "requested_chunk_size" : 1024,
      "uncompressed_file_size_in_bytes" : 0,
   }
}`
	l, err := Decode([]byte(content), FormatJSON)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got := l.Inputs(); len(got) != 2 || got[0] != "in.bin" || got[1] != "other.bin" {
		t.Fatalf("Unexpected inputs: %v", got)
	}

	run, ok := l.Latest("in.bin")
	if !ok {
		t.Fatal("Expected a run for in.bin")
	}
	if run.LegacyVersion != "1.0" || run.ChunkCount != 1 || run.Chunks[0].Strategy != codec.StrategyRLE {
		t.Errorf("Unexpected run: %+v", run)
	}
	if err := run.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}

	other, _ := l.Latest("other.bin")
	if other.Chunks == nil {
		t.Error("Missing chunks list should decode as empty, not nil")
	}
}

func TestLegacyVersionKeepsLiteral(t *testing.T) {
	content := `{
   "in.bin" : {
      "chunks" : [],
      "number_of_chunks" : 0,
      "requested_chunk_size" : 4096,
      "uncompressed_file_size_in_bytes" : 0,
      "xzcompress_version" : 1.0
   }
}`
	l, err := Decode([]byte(content), FormatJSON)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	out, err := l.Encode(FormatJSON)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Contains(out, []byte(`"xzcompress_version": 1.0`)) {
		t.Errorf("Version literal not preserved:\n%s", out)
	}

	bin, err := l.Encode(FormatCBOR)
	if err != nil {
		t.Fatalf("Encode CBOR failed: %v", err)
	}
	back, err := Decode(bin, FormatCBOR)
	if err != nil {
		t.Fatalf("Decode CBOR failed: %v", err)
	}
	run, _ := back.Latest("in.bin")
	if run.LegacyVersion != "1.0" {
		t.Errorf("Expected version 1.0 after CBOR round trip, got %q", run.LegacyVersion)
	}
}

func TestRecordRunReplaceKeepsPosition(t *testing.T) {
	l := New()
	for _, id := range []string{"a", "b", "c"} {
		if err := l.RecordRun(id, sampleRun(100, 100), ModeReplace); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	replacement := sampleRun(50, 50, 50)
	if err := l.RecordRun("b", replacement, ModeReplace); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	if got := strings.Join(l.Inputs(), ","); got != "a,b,c" {
		t.Errorf("Expected order a,b,c, got %s", got)
	}
	runs := l.Runs("b")
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run for b, got %d", len(runs))
	}
	if !runs[0].Equal(replacement) {
		t.Errorf("Expected replacement run, got %+v", runs[0])
	}
}

func TestRecordRunHistory(t *testing.T) {
	l := New()
	first := sampleRun(100, 100)
	second := sampleRun(10, 10, 10)

	for _, run := range []RunRecord{first, second, first} {
		if err := l.RecordRun("in", run, ModeHistory); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs := l.Runs("in")
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs after dedup, got %d", len(runs))
	}
	if !runs[0].Equal(second) || !runs[1].Equal(first) {
		t.Error("Expected identical run to move to the end")
	}

	latest, _ := l.Latest("in")
	if !latest.Equal(first) {
		t.Error("Latest should be the last recorded run")
	}
}

func TestRecordRunErrors(t *testing.T) {
	l := New()
	if err := l.RecordRun("", sampleRun(1, 1), ModeReplace); !errors.Is(err, ErrEmptyInputID) {
		t.Errorf("Expected ErrEmptyInputID, got %v", err)
	}
	if err := l.RecordRun("in", sampleRun(1, 1), Mode("append")); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Expected ErrUnknownMode, got %v", err)
	}
	if l.Len() != 0 {
		t.Error("Failed records must not add inputs")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeReplace {
		t.Errorf("Expected default replace, got %v %v", m, err)
	}
	if m, err := ParseMode("history"); err != nil || m != ModeHistory {
		t.Errorf("Expected history, got %v %v", m, err)
	}
	if _, err := ParseMode("bogus"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Expected ErrUnknownMode, got %v", err)
	}
}

func TestPersistJSONLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	l := New()
	if err := l.RecordRun("in.bin", sampleRun(4096, 4096, 1808), ModeReplace); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := l.RecordRun("empty.bin", sampleRun(4096), ModeReplace); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := l.Persist(path); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read ledger: %v", err)
	}
	text := string(data)

	if !strings.HasPrefix(text, "{\n   \"in.bin\": [\n      {\n") {
		t.Errorf("Expected 3-space indentation, got:\n%s", text)
	}
	if !strings.Contains(text, `"chunks": []`) {
		t.Error("Empty run should serialize an empty chunks list")
	}

	order := []string{
		`"tool_version"`,
		`"requested_chunk_size"`,
		`"number_of_chunks"`,
		`"uncompressed_file_size_in_bytes"`,
		`"strategy_set"`,
		`"chunks"`,
		`"chunk_size_uncompressed"`,
		`"chunk_size_compressed"`,
		`"deflate_strategy"`,
	}
	last := -1
	for _, field := range order {
		idx := strings.Index(text, field)
		if idx < 0 {
			t.Fatalf("Field %s missing", field)
		}
		if idx < last {
			t.Errorf("Field %s out of order", field)
		}
		last = idx
	}

	if strings.Contains(text, "xzcompress_version") || strings.Contains(text, "blake3") {
		t.Error("Empty optional fields should be omitted")
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".ledger-*"))
	if len(matches) != 0 {
		t.Errorf("Temp files left behind: %v", matches)
	}
}

func TestPersistIsStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.json")

	write := func() []byte {
		l, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if err := l.RecordRun("x", sampleRun(10, 10, 10, 5), ModeReplace); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
		if err := l.RecordRun("y", sampleRun(10, 3), ModeReplace); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
		if err := l.Persist(path); err != nil {
			t.Fatalf("Persist failed: %v", err)
		}
		data, _ := os.ReadFile(path)
		return data
	}

	first := write()
	second := write()
	if !bytes.Equal(first, second) {
		t.Errorf("Rerun changed the ledger:\n%s\nvs\n%s", first, second)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	for _, name := range []string{"meta.json", "meta.cbor"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			l := New()
			run := sampleRun(1000, 1000, 1000, 7)
			run.Chunks[0].Hash = "00ff"
			_ = l.RecordRun("z", run, ModeReplace)
			_ = l.RecordRun("a", sampleRun(8), ModeHistory)
			_ = l.RecordRun("a", sampleRun(8, 8), ModeHistory)

			if err := l.Persist(path); err != nil {
				t.Fatalf("Persist failed: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if got := strings.Join(loaded.Inputs(), ","); got != "z,a" {
				t.Errorf("Expected order z,a, got %s", got)
			}
			if latest, _ := loaded.Latest("z"); !latest.Equal(run) {
				t.Errorf("Run mismatch: %+v vs %+v", latest, run)
			}
			if len(loaded.Runs("a")) != 2 {
				t.Errorf("Expected 2 history runs, got %d", len(loaded.Runs("a")))
			}
		})
	}
}

func TestCBORDeterministic(t *testing.T) {
	l := New()
	_ = l.RecordRun("in", sampleRun(64, 64, 64, 1), ModeReplace)

	first, err := l.Encode(FormatCBOR)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	second, _ := l.Encode(FormatCBOR)
	if !bytes.Equal(first, second) {
		t.Error("CBOR encoding is not deterministic")
	}

	if _, err := Decode([]byte{0xff, 0x00}, FormatCBOR); !errors.Is(err, ErrCorruptLedger) {
		t.Errorf("Expected ErrCorruptLedger, got %v", err)
	}
}

func TestPersistFailureKeepsLedger(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	l := New()
	_ = l.RecordRun("in", sampleRun(1, 1), ModeReplace)
	if err := l.Persist(filepath.Join(blocker, "meta.json")); err == nil {
		t.Error("Expected persist under a regular file to fail")
	}
}

func TestRemove(t *testing.T) {
	l := New()
	_ = l.RecordRun("a", sampleRun(1, 1), ModeReplace)
	_ = l.RecordRun("b", sampleRun(1, 1), ModeReplace)

	if !l.Remove("a") {
		t.Error("Expected Remove to report an existing input")
	}
	if l.Remove("a") {
		t.Error("Second Remove should report nothing removed")
	}
	if got := l.Inputs(); len(got) != 1 || got[0] != "b" {
		t.Errorf("Unexpected inputs after remove: %v", got)
	}
}

func TestRunValidate(t *testing.T) {
	valid := sampleRun(100, 100, 100, 42)
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if valid.CompressedSize() != 10+10+4 {
		t.Errorf("Expected compressed size 24, got %d", valid.CompressedSize())
	}

	broken := []func(r *RunRecord){
		func(r *RunRecord) { r.ChunkCount++ },
		func(r *RunRecord) { r.RequestedChunkSize = 0 },
		func(r *RunRecord) { r.RequestedChunkSize = MaxChunkSize + 1 },
		func(r *RunRecord) { r.Chunks[0].UncompressedSize = 99 },
		func(r *RunRecord) { r.Chunks[2].UncompressedSize = 101 },
		func(r *RunRecord) { r.Chunks[1].Strategy = codec.Strategy(42) },
		func(r *RunRecord) { r.UncompressedFileSize = 1 },
	}
	for i, mutate := range broken {
		run := sampleRun(100, 100, 100, 42)
		mutate(&run)
		if err := run.Validate(); !errors.Is(err, ErrInconsistentRun) {
			t.Errorf("case %d: expected ErrInconsistentRun, got %v", i, err)
		}
	}
}
