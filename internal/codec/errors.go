// internal/codec/errors.go
package codec

import "errors"

var (
	// ErrIncompressible is returned when a strategy did not produce output
	// strictly smaller than its input. It is a rejection, not a failure.
	ErrIncompressible = errors.New("data is incompressible")

	// ErrUnknownStrategy is returned for a strategy outside the closed set
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrUnknownSet is returned for an unknown strategy set name
	ErrUnknownSet = errors.New("unknown strategy set")

	// ErrSizeMismatch is returned when decompressed data does not have the recorded size
	ErrSizeMismatch = errors.New("decompressed size mismatch")

	// errOverflow signals the encoder tried to write past the input length
	errOverflow = errors.New("compressed output exceeds input size")
)

// IsIncompressible reports whether err is a rejection rather than a failure.
func IsIncompressible(err error) bool {
	return errors.Is(err, ErrIncompressible)
}
