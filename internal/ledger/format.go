// internal/ledger/format.go
package ledger

import (
	"path/filepath"
	"strings"
)

// Format identifies the on-disk encoding of a ledger
type Format int

const (
	// FormatJSON is the default human-readable ledger
	FormatJSON Format = iota
	// FormatCBOR is a compact deterministic binary ledger
	FormatCBOR
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCBOR:
		return "cbor"
	default:
		return "unknown"
	}
}

// DetectFormat picks the ledger encoding from the file extension.
// Anything other than .cbor is JSON.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return FormatCBOR
	}
	return FormatJSON
}
