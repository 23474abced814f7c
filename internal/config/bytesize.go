// internal/config/bytesize.go
package config

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// ByteSize is a byte count written with optional human units ("4KiB",
// "32MiB", "33554432"). It works as a YAML scalar and as a pflag.Value.
type ByteSize uint64

// ParseByteSize parses s with go-humanize rules
func ParseByteSize(s string) (ByteSize, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return ByteSize(n), nil
}

// String prints exact binary multiples with their unit, anything else in bytes
func (b ByteSize) String() string {
	units := []struct {
		suffix string
		size   uint64
	}{
		{"GiB", humanize.GiByte},
		{"MiB", humanize.MiByte},
		{"KiB", humanize.KiByte},
	}
	n := uint64(b)
	for _, u := range units {
		if n >= u.size && n%u.size == 0 {
			return strconv.FormatUint(n/u.size, 10) + u.suffix
		}
	}
	return strconv.FormatUint(n, 10)
}

// Set implements pflag.Value
func (b *ByteSize) Set(s string) error {
	v, err := ParseByteSize(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Type implements pflag.Value
func (b *ByteSize) Type() string { return "size" }

// UnmarshalYAML accepts integers and unit strings
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: size must be a scalar", value.Line)
	}
	v, err := ParseByteSize(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*b = v
	return nil
}
