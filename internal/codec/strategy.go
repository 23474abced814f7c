// internal/codec/strategy.go
package codec

import (
	"fmt"
	"strings"
)

// Strategy identifies one compression configuration tried against a chunk.
// The numeric values are written to the ledger as "deflate_strategy" and
// must never change. Deflate variants keep zlib's strategy numbering.
type Strategy int8

const (
	// StrategyStored marks a chunk written verbatim because no strategy
	// could shrink it. Only produced by the store-raw fallback.
	StrategyStored Strategy = -1

	StrategyDefault     Strategy = 0 // Z_DEFAULT_STRATEGY
	StrategyFiltered    Strategy = 1 // Z_FILTERED
	StrategyHuffmanOnly Strategy = 2 // Z_HUFFMAN_ONLY
	StrategyRLE         Strategy = 3 // Z_RLE
	StrategyFixed       Strategy = 4 // Z_FIXED

	// Extended set, opt-in
	StrategyZstd Strategy = 5
	StrategyLZ4  Strategy = 6
	StrategyXZ   Strategy = 7
)

var strategyNames = map[Strategy]string{
	StrategyStored:      "stored",
	StrategyDefault:     "default",
	StrategyFiltered:    "filtered",
	StrategyHuffmanOnly: "huffman-only",
	StrategyRLE:         "rle",
	StrategyFixed:       "fixed",
	StrategyZstd:        "zstd",
	StrategyLZ4:         "lz4",
	StrategyXZ:          "xz",
}

// String returns the human-readable strategy name.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int8(s))
}

// Code returns the integer recorded in the ledger.
func (s Strategy) Code() int {
	return int(s)
}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	_, ok := strategyNames[s]
	return ok
}

// IsDeflate reports whether s produces a raw DEFLATE stream.
func (s Strategy) IsDeflate() bool {
	return s >= StrategyDefault && s <= StrategyFixed
}

// ParseStrategy parses a strategy from its name.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy: %q", name)
}

// Set names an ordered group of strategies evaluated for every chunk.
type Set string

const (
	// SetDeflate is the reference set: the five deflate variants.
	SetDeflate Set = "deflate"

	// SetExtended adds zstd, lz4 and xz after the deflate variants.
	SetExtended Set = "extended"
)

var (
	deflateStrategies = []Strategy{
		StrategyDefault,
		StrategyFiltered,
		StrategyHuffmanOnly,
		StrategyRLE,
		StrategyFixed,
	}
	extendedStrategies = append(append([]Strategy{}, deflateStrategies...),
		StrategyZstd,
		StrategyLZ4,
		StrategyXZ,
	)
)

// Strategies returns the strategies of the set in evaluation order.
// The order is part of the tie-break contract: earlier entries win ties.
func (s Set) Strategies() ([]Strategy, error) {
	switch s {
	case SetDeflate:
		return append([]Strategy(nil), deflateStrategies...), nil
	case SetExtended:
		return append([]Strategy(nil), extendedStrategies...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSet, string(s))
	}
}

// ParseSet parses a strategy set name.
func ParseSet(name string) (Set, error) {
	set := Set(strings.ToLower(strings.TrimSpace(name)))
	if _, err := set.Strategies(); err != nil {
		return "", err
	}
	return set, nil
}
