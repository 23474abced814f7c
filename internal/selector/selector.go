// internal/selector/selector.go
package selector

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/creativeyann17/go-chunkflate/internal/chunkstore"
	"github.com/creativeyann17/go-chunkflate/internal/codec"
	"github.com/zeebo/blake3"
)

var (
	// ErrNoImprovement is returned when no strategy could shrink a chunk
	ErrNoImprovement = errors.New("no compression strategy produced output smaller than the input")

	// ErrNoStrategies is returned when a selector is built with an empty strategy list
	ErrNoStrategies = errors.New("at least one strategy is required")

	// ErrUnstableCodec is returned when regenerating the winner yields a different size
	ErrUnstableCodec = errors.New("codec output changed between trial and regeneration")
)

// Options configures a Selector
type Options struct {
	// Strategies in evaluation order; earlier strategies win ties
	Strategies []codec.Strategy

	// Parallel runs the trials of one chunk concurrently
	Parallel bool

	// Cache remembers winners by chunk content hash (optional)
	Cache *chunkstore.Store

	// Logger receives debug output about codec failures (optional)
	Logger *slog.Logger
}

// Trial is the outcome of compressing one chunk under one strategy.
// Only the size is kept; trial bytes are discarded.
type Trial struct {
	Strategy codec.Strategy
	Size     int
	Err      error
}

// Selection is the winning outcome for one chunk plus the bytes to write
type Selection struct {
	Strategy       codec.Strategy
	OriginalSize   uint64
	CompressedSize uint64
	Data           []byte
	CacheHit       bool
}

// Selector picks the strategy producing the smallest output for a chunk
type Selector struct {
	codec      codec.Codec
	strategies []codec.Strategy
	parallel   bool
	cache      *chunkstore.Store
	logger     *slog.Logger

	scratch sync.Pool
}

// New creates a selector over c
func New(c codec.Codec, opts Options) (*Selector, error) {
	if len(opts.Strategies) == 0 {
		return nil, ErrNoStrategies
	}
	for _, s := range opts.Strategies {
		if !s.Valid() || s == codec.StrategyStored {
			return nil, fmt.Errorf("%w: %d", codec.ErrUnknownStrategy, int8(s))
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Selector{
		codec:      c,
		strategies: append([]codec.Strategy(nil), opts.Strategies...),
		parallel:   opts.Parallel && len(opts.Strategies) > 1,
		cache:      opts.Cache,
		logger:     logger,
		scratch: sync.Pool{
			New: func() any {
				var buf []byte
				return &buf
			},
		},
	}, nil
}

// Strategies returns the evaluation order
func (s *Selector) Strategies() []codec.Strategy {
	return append([]codec.Strategy(nil), s.strategies...)
}

// Trials compresses data under every strategy. The result is indexed by
// evaluation order regardless of completion order.
func (s *Selector) Trials(data []byte) []Trial {
	trials := make([]Trial, len(s.strategies))

	if !s.parallel {
		for i, strategy := range s.strategies {
			trials[i] = s.trial(data, strategy)
		}
		return trials
	}

	var wg sync.WaitGroup
	for i, strategy := range s.strategies {
		wg.Add(1)
		go func(i int, strategy codec.Strategy) {
			defer wg.Done()
			trials[i] = s.trial(data, strategy)
		}(i, strategy)
	}
	wg.Wait()
	return trials
}

func (s *Selector) trial(data []byte, strategy codec.Strategy) Trial {
	bufPtr := s.scratch.Get().(*[]byte)
	defer s.scratch.Put(bufPtr)

	if cap(*bufPtr) < len(data) {
		*bufPtr = make([]byte, 0, len(data))
	}

	out, err := s.codec.Compress((*bufPtr)[:0], data, strategy)
	if err != nil {
		return Trial{Strategy: strategy, Err: err}
	}
	return Trial{Strategy: strategy, Size: len(out)}
}

// best picks the smallest successful trial; the first one wins ties
func (s *Selector) best(data []byte) (chunkstore.Entry, error) {
	trials := s.Trials(data)

	winner := -1
	for i, t := range trials {
		if t.Err != nil {
			if !codec.IsIncompressible(t.Err) {
				s.logger.Debug("strategy trial failed", "strategy", t.Strategy.String(), "error", t.Err)
			}
			continue
		}
		if t.Size >= len(data) {
			continue
		}
		if winner < 0 || t.Size < trials[winner].Size {
			winner = i
		}
	}

	if winner < 0 {
		return chunkstore.Entry{}, ErrNoImprovement
	}
	return chunkstore.Entry{
		Strategy:       trials[winner].Strategy,
		OriginalSize:   uint64(len(data)),
		CompressedSize: uint64(trials[winner].Size),
	}, nil
}

// Select runs the trials for data and regenerates the winner's output into dst
func (s *Selector) Select(dst, data []byte) (Selection, error) {
	var hash [32]byte
	if s.cache != nil {
		hash = blake3.Sum256(data)
	}
	return s.SelectHashed(dst, data, hash)
}

// SelectHashed is Select for callers that already hold the BLAKE3 digest of data
func (s *Selector) SelectHashed(dst, data []byte, hash [32]byte) (Selection, error) {
	var entry chunkstore.Entry
	cacheHit := false
	var err error

	if s.cache != nil {
		var isNew bool
		entry, isNew, err = s.cache.GetOrAdd(hash, func() (chunkstore.Entry, error) {
			return s.best(data)
		})
		cacheHit = !isNew
	} else {
		entry, err = s.best(data)
	}
	if err != nil {
		return Selection{}, err
	}

	// Trial buffers are not kept; compress once more with the winner
	out, err := s.codec.Compress(dst, data, entry.Strategy)
	if err != nil {
		return Selection{}, fmt.Errorf("regenerate %s output: %w", entry.Strategy, err)
	}
	if uint64(len(out)) != entry.CompressedSize {
		return Selection{}, fmt.Errorf("%w: %s produced %d bytes, trial produced %d",
			ErrUnstableCodec, entry.Strategy, len(out), entry.CompressedSize)
	}

	return Selection{
		Strategy:       entry.Strategy,
		OriginalSize:   uint64(len(data)),
		CompressedSize: uint64(len(out)),
		Data:           out,
		CacheHit:       cacheHit,
	}, nil
}
