// internal/ledger/ledger.go
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/tidwall/jsonc"
)

// Mode controls how RecordRun treats an input that already has runs
type Mode string

const (
	// ModeReplace keeps only the latest run per input
	ModeReplace Mode = "replace"
	// ModeHistory appends runs, dropping earlier identical ones
	ModeHistory Mode = "history"
)

// ParseMode validates a mode name. The empty string selects ModeReplace.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeHistory:
		return ModeHistory, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Ledger maps input identifiers to their recorded runs. Keys keep the
// order they were first seen in so rewrites are stable.
type Ledger struct {
	keys []string
	runs map[string][]RunRecord
}

// New returns an empty ledger
func New() *Ledger {
	return &Ledger{runs: make(map[string][]RunRecord)}
}

// Load reads the ledger at path. A missing file yields an empty ledger;
// a file that cannot be parsed yields ErrCorruptLedger.
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	l, err := Decode(data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Decode parses ledger bytes in the given format
func Decode(data []byte, format Format) (*Ledger, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return New(), nil
	}
	switch format {
	case FormatCBOR:
		return decodeCBOR(data)
	default:
		return decodeJSON(data)
	}
}

// Encode serializes the ledger deterministically
func (l *Ledger) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatCBOR:
		return l.encodeCBOR()
	default:
		return l.encodeJSON()
	}
}

// Persist writes the ledger to path atomically in the format its
// extension selects. The previous file stays intact if anything fails.
func (l *Ledger) Persist(path string) error {
	data, err := l.Encode(DetectFormat(path))
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return writeAtomic(path, data)
}

// RecordRun stores run under inputID according to mode
func (l *Ledger) RecordRun(inputID string, run RunRecord, mode Mode) error {
	if inputID == "" {
		return ErrEmptyInputID
	}
	if run.Chunks == nil {
		run.Chunks = []ChunkRecord{}
	}

	existing, known := l.runs[inputID]
	switch mode {
	case "", ModeReplace:
		l.runs[inputID] = []RunRecord{run}
	case ModeHistory:
		kept := make([]RunRecord, 0, len(existing)+1)
		for _, r := range existing {
			if !r.Equal(run) {
				kept = append(kept, r)
			}
		}
		l.runs[inputID] = append(kept, run)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	if !known {
		l.keys = append(l.keys, inputID)
	}
	return nil
}

// Remove deletes every run of inputID and reports whether it existed
func (l *Ledger) Remove(inputID string) bool {
	if _, ok := l.runs[inputID]; !ok {
		return false
	}
	delete(l.runs, inputID)
	for i, k := range l.keys {
		if k == inputID {
			l.keys = append(l.keys[:i], l.keys[i+1:]...)
			break
		}
	}
	return true
}

// Inputs returns the recorded input identifiers in ledger order
func (l *Ledger) Inputs() []string {
	return append([]string(nil), l.keys...)
}

// Runs returns the runs recorded for inputID, oldest first
func (l *Ledger) Runs(inputID string) []RunRecord {
	return append([]RunRecord(nil), l.runs[inputID]...)
}

// Latest returns the most recent run recorded for inputID
func (l *Ledger) Latest(inputID string) (RunRecord, bool) {
	runs := l.runs[inputID]
	if len(runs) == 0 {
		return RunRecord{}, false
	}
	return runs[len(runs)-1], true
}

// Len returns the number of inputs in the ledger
func (l *Ledger) Len() int { return len(l.keys) }

// set stores runs for key, keeping the first position of duplicate keys
func (l *Ledger) set(key string, runs []RunRecord) {
	if _, ok := l.runs[key]; !ok {
		l.keys = append(l.keys, key)
	}
	l.runs[key] = runs
}

func decodeJSON(data []byte) (*Ledger, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLedger, err)
	}
	if tok == nil {
		return New(), nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: top level is not an object", ErrCorruptLedger)
	}

	l := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptLedger, err)
		}
		key := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrCorruptLedger, key, err)
		}
		runs, err := decodeRuns(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %v", ErrCorruptLedger, key, err)
		}
		l.set(key, runs)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLedger, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after top-level object", ErrCorruptLedger)
	}
	return l, nil
}

// decodeRuns accepts either a list of runs or a single run object
func decodeRuns(raw json.RawMessage) ([]RunRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty value")
	}

	switch trimmed[0] {
	case '[':
		var runs []RunRecord
		if err := json.Unmarshal(trimmed, &runs); err != nil {
			return nil, err
		}
		for i := range runs {
			if runs[i].Chunks == nil {
				runs[i].Chunks = []ChunkRecord{}
			}
		}
		return runs, nil
	case '{':
		var run RunRecord
		if err := json.Unmarshal(trimmed, &run); err != nil {
			return nil, err
		}
		if run.Chunks == nil {
			run.Chunks = []ChunkRecord{}
		}
		return []RunRecord{run}, nil
	default:
		return nil, fmt.Errorf("expected object or list, got %q", trimmed[:1])
	}
}

func (l *Ledger) encodeJSON() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, key := range l.keys {
		if i > 0 {
			compact.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(l.runs[key])
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", key, err)
		}
		compact.Write(k)
		compact.WriteByte(':')
		compact.Write(v)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "   "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// cborEntry is one input of a CBOR ledger. The top level is an array of
// these so key order survives the round trip.
type cborEntry struct {
	Input string      `cbor:"input"`
	Runs  []RunRecord `cbor:"runs"`
}

var cborEncMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("ledger: cbor encoder mode: " + err.Error())
	}
	return mode
}()

func (l *Ledger) encodeCBOR() ([]byte, error) {
	entries := make([]cborEntry, 0, len(l.keys))
	for _, key := range l.keys {
		entries = append(entries, cborEntry{Input: key, Runs: l.runs[key]})
	}
	return cborEncMode.Marshal(entries)
}

func decodeCBOR(data []byte) (*Ledger, error) {
	var entries []cborEntry
	if err := cbor.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptLedger, err)
	}

	l := New()
	for _, e := range entries {
		if e.Input == "" {
			return nil, fmt.Errorf("%w: entry without input identifier", ErrCorruptLedger)
		}
		for i := range e.Runs {
			if e.Runs[i].Chunks == nil {
				e.Runs[i].Chunks = []ChunkRecord{}
			}
		}
		l.set(e.Input, e.Runs)
	}
	return l, nil
}
