// internal/codec/codec.go
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Codec compresses and decompresses single chunks under a given strategy.
type Codec interface {
	// Compress compresses src with strategy s. dst is used as backing
	// storage when its capacity allows. Output that is not strictly
	// smaller than src is rejected with ErrIncompressible.
	Compress(dst, src []byte, s Strategy) ([]byte, error)

	// Decompress restores exactly size bytes from src.
	Decompress(src []byte, s Strategy, size int) ([]byte, error)
}

// Adapter is the Codec backed by klauspost/compress, pierrec/lz4 and ulikunitz/xz.
// It holds no per-call state; every call builds a fresh encoder.
type Adapter struct{}

// New returns the default codec adapter
func New() *Adapter {
	return &Adapter{}
}

var _ Codec = (*Adapter)(nil)

// zstd.Encoder and zstd.Decoder are safe for concurrent EncodeAll/DecodeAll
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderCRC(false),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress implements Codec.
func (a *Adapter) Compress(dst, src []byte, s Strategy) ([]byte, error) {
	if !s.Valid() || s == StrategyStored {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int8(s))
	}
	// Nothing is strictly smaller than an empty chunk
	if len(src) == 0 {
		return nil, ErrIncompressible
	}
	if cap(dst) < len(src) {
		dst = make([]byte, 0, len(src))
	}

	var out []byte
	var err error
	switch {
	case s.IsDeflate():
		out, err = compressDeflate(dst, src, s)
	case s == StrategyZstd:
		out = zstdEncoder.EncodeAll(src, dst[:0])
	case s == StrategyLZ4:
		out, err = compressLZ4(dst, src)
	case s == StrategyXZ:
		out, err = compressXZ(dst, src)
	}

	if errors.Is(err, errOverflow) {
		return nil, ErrIncompressible
	}
	if err != nil {
		return nil, fmt.Errorf("%s compress: %w", s, err)
	}
	if len(out) == 0 || len(out) >= len(src) {
		return nil, ErrIncompressible
	}
	return out, nil
}

// Decompress implements Codec.
func (a *Adapter) Decompress(src []byte, s Strategy, size int) ([]byte, error) {
	var out []byte
	var err error
	switch {
	case s == StrategyStored:
		out = append([]byte(nil), src...)
	case s.IsDeflate():
		out, err = decompressDeflate(src, size)
	case s == StrategyZstd:
		out, err = zstdDecoder.DecodeAll(src, make([]byte, 0, size))
	case s == StrategyLZ4:
		out, err = decompressLZ4(src, size)
	case s == StrategyXZ:
		out, err = decompressXZ(src, size)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int8(s))
	}
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", s, err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("%s decompress: %w: got %d bytes, expected %d", s, ErrSizeMismatch, len(out), size)
	}
	return out, nil
}

// boundedBuffer accepts at most limit bytes. Encoders stop as soon as the
// output can no longer beat the input, instead of finishing a useless pass.
// An overflow is sticky: some encoders swallow the write error and carry on,
// so the stream is only trusted once bytes() confirms nothing was dropped.
type boundedBuffer struct {
	buf        []byte
	limit      int
	overflowed bool
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if b.overflowed || len(b.buf)+len(p) > b.limit {
		b.overflowed = true
		return 0, errOverflow
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// fail reports an encoder error, preferring errOverflow when the encoder
// wrapped or replaced it
func (b *boundedBuffer) fail(err error) error {
	if b.overflowed {
		return errOverflow
	}
	return err
}

// bytes returns the complete stream, or errOverflow if any write was refused
func (b *boundedBuffer) bytes() ([]byte, error) {
	if b.overflowed {
		return nil, errOverflow
	}
	return b.buf, nil
}

// deflateLevel maps a deflate strategy to the flate encoder configuration
// standing in for it. StrategyFixed uses the stateless encoder instead.
func deflateLevel(s Strategy) int {
	switch s {
	case StrategyFiltered:
		return 6
	case StrategyHuffmanOnly:
		return flate.HuffmanOnly
	case StrategyRLE:
		return flate.BestSpeed
	default:
		return flate.BestCompression
	}
}

func compressDeflate(dst, src []byte, s Strategy) ([]byte, error) {
	out := &boundedBuffer{buf: dst[:0], limit: len(src) - 1}

	if s == StrategyFixed {
		if err := flate.StatelessDeflate(out, src, true, nil); err != nil {
			return nil, out.fail(err)
		}
		return out.bytes()
	}

	w, err := flate.NewWriter(out, deflateLevel(s))
	if err != nil {
		return nil, out.fail(err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, out.fail(err)
	}
	if err := w.Close(); err != nil {
		return nil, out.fail(err)
	}
	return out.bytes()
}

func decompressDeflate(src []byte, size int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	// The stream must end exactly at size
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, ErrSizeMismatch
	}
	return out, nil
}

func compressLZ4(dst, src []byte) ([]byte, error) {
	scratch := make([]byte, lz4.CompressBlockBound(len(src)))
	written, err := lz4.CompressBlock(src, scratch, nil)
	if err != nil {
		return nil, err
	}
	// CompressBlock reports incompressible data with 0
	if written == 0 || written >= len(src) {
		return nil, errOverflow
	}
	return append(dst[:0], scratch[:written]...), nil
}

func decompressLZ4(src []byte, size int) ([]byte, error) {
	out := make([]byte, size)
	read, err := lz4.UncompressBlock(src, out)
	if err != nil {
		return nil, err
	}
	return out[:read], nil
}

// xzDictCap scales the dictionary with the chunk size
func xzDictCap(n int) int {
	const minDict = 1 << 12
	const maxDict = 1 << 26
	switch {
	case n < minDict:
		return minDict
	case n > maxDict:
		return maxDict
	default:
		return n
	}
}

func compressXZ(dst, src []byte) ([]byte, error) {
	out := &boundedBuffer{buf: dst[:0], limit: len(src) - 1}

	cfg := xz.WriterConfig{DictCap: xzDictCap(len(src))}
	w, err := cfg.NewWriter(out)
	if err != nil {
		return nil, out.fail(err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, out.fail(err)
	}
	if err := w.Close(); err != nil {
		return nil, out.fail(err)
	}
	return out.bytes()
}

func decompressXZ(src []byte, size int) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, ErrSizeMismatch
	}
	return out, nil
}
