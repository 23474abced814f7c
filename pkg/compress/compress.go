// pkg/compress/compress.go
package compress

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/creativeyann17/go-chunkflate/internal/chunker"
	"github.com/creativeyann17/go-chunkflate/internal/chunkstore"
	"github.com/creativeyann17/go-chunkflate/internal/codec"
	"github.com/creativeyann17/go-chunkflate/internal/ledger"
	"github.com/creativeyann17/go-chunkflate/internal/selector"
	"github.com/creativeyann17/go-chunkflate/pkg/chunkflate"
)

const outputBufferSize = 1 << 20

// chunkResult travels from a worker to the ordered writer
type chunkResult struct {
	index  int
	sel    selector.Selection
	hash   [32]byte
	stored bool
	buf    *[]byte
	err    error
}

func (r *chunkResult) release() {
	putOutputBuffer(r.buf)
	r.buf = nil
}

// Compress splits the input into fixed-size chunks, keeps the smallest
// strategy output for each one, writes the outputs back to back and
// records the run in the metadata ledger.
//
// The ledger is loaded before the output is created, so a corrupt ledger
// aborts without touching the output. Any failure after that may leave a
// partial output file on disk; a persist failure leaves a complete output
// without its ledger entry. Callers must check the returned error.
func Compress(ctx context.Context, opts *Options, progressCb ProgressCallback) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	in, err := os.Open(opts.InputPath)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", opts.InputPath, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat input %s: %w", opts.InputPath, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotRegular, opts.InputPath)
	}

	var led *ledger.Ledger
	if !opts.DryRun {
		led, err = ledger.Load(opts.MetadataPath)
		if err != nil {
			return nil, fmt.Errorf("load ledger: %w", err)
		}
	}

	plan, err := chunker.NewPlan(uint64(info.Size()), opts.ChunkSize)
	if err != nil {
		return nil, err
	}

	strategies, err := opts.StrategySet.Strategies()
	if err != nil {
		return nil, err
	}

	var cache *chunkstore.Store
	switch {
	case opts.SelectionCacheSize < 0:
		cache = chunkstore.NewStore()
	case opts.SelectionCacheSize > 0:
		cache = chunkstore.NewStoreWithCapacity(opts.SelectionCacheSize)
	}

	sel, err := selector.New(codec.New(), selector.Options{
		Strategies: strategies,
		Parallel:   opts.ParallelTrials,
		Cache:      cache,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		InputPath:    opts.InputPath,
		OutputPath:   opts.OutputPath,
		MetadataPath: opts.MetadataPath,
		ChunksTotal:  plan.ChunkCount(),
		OriginalSize: plan.TotalSize(),
		StrategyWins: make(map[codec.Strategy]int),
		DryRun:       opts.DryRun,
	}

	logger.Debug("chunk plan",
		"input", opts.InputPath,
		"size", plan.TotalSize(),
		"chunk_size", plan.ChunkSize(),
		"chunks", plan.ChunkCount(),
		"strategies", string(opts.StrategySet),
	)

	// Output sink
	var outFile *os.File
	var bw *bufio.Writer
	var counter io.Writer
	var written func() uint64

	if opts.DryRun {
		dc := &chunkflate.DiscardCounter{}
		counter = dc
		written = func() uint64 { return dc.Count }
	} else {
		if err := os.MkdirAll(filepath.Dir(opts.OutputPath), 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
		outFile, err = os.Create(opts.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("create output file: %w", err)
		}
		defer outFile.Close()

		bw = bufio.NewWriterSize(outFile, outputBufferSize)
		cw := &chunkflate.CountingWriter{Writer: bw}
		counter = cw
		written = func() uint64 { return cw.Count }
	}

	if progressCb != nil {
		progressCb(ProgressEvent{
			Type:       EventStart,
			Total:      int64(plan.ChunkCount()),
			TotalBytes: plan.TotalSize(),
		})
	}

	p := &pipeline{
		plan:       plan,
		reader:     chunker.NewReader(in, plan),
		selector:   sel,
		storeRaw:   opts.StoreRaw,
		verbose:    opts.Verbose,
		maxThreads: opts.MaxThreads,
		out:        counter,
		logger:     logger,
		progressCb: progressCb,
		result:     result,
	}
	records, err := p.run(ctx)
	result.CompressedSize = written()

	// Chunks written before a failure stay on disk
	if bw != nil {
		if ferr := bw.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("flush output: %w", ferr)
		}
		if cerr := outFile.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}
	if err != nil {
		if progressCb != nil {
			progressCb(ProgressEvent{Type: EventError, Index: result.ChunksProcessed})
		}
		return nil, err
	}

	if cache != nil {
		stats := cache.Stats()
		result.CacheLookups = stats.Lookups
		result.CacheHits = stats.Hits
		result.CacheEvictions = stats.Evictions
		result.CacheEntries = stats.Entries
	}

	result.Run = ledger.RunRecord{
		ToolVersion:          opts.ToolVersion,
		RequestedChunkSize:   opts.ChunkSize,
		ChunkCount:           len(records),
		UncompressedFileSize: plan.TotalSize(),
		StrategySet:          string(opts.StrategySet),
		Chunks:               records,
	}

	if !opts.DryRun {
		if err := led.RecordRun(opts.InputID, result.Run, opts.LedgerMode); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
		if err := led.Persist(opts.MetadataPath); err != nil {
			if progressCb != nil {
				progressCb(ProgressEvent{Type: EventError, Index: result.ChunksProcessed})
			}
			return nil, fmt.Errorf("persist ledger: %w", err)
		}
	}

	logger.Debug("compression complete",
		"chunks", result.ChunksProcessed,
		"original", result.OriginalSize,
		"compressed", result.CompressedSize,
		"stored", result.StoredChunks,
	)

	if progressCb != nil {
		progressCb(ProgressEvent{
			Type:           EventComplete,
			Current:        int64(result.ChunksProcessed),
			Total:          int64(result.ChunksTotal),
			TotalBytes:     result.OriginalSize,
			CompressedSize: result.CompressedSize,
		})
	}

	return result, nil
}

// pipeline runs the chunk window: one reader, maxThreads workers and the
// calling goroutine writing results in chunk order.
type pipeline struct {
	plan       chunker.Plan
	reader     *chunker.Reader
	selector   *selector.Selector
	storeRaw   bool
	verbose    bool
	maxThreads int
	out        io.Writer
	logger     *slog.Logger
	progressCb ProgressCallback
	result     *Result
}

func (p *pipeline) run(ctx context.Context) ([]ledger.ChunkRecord, error) {
	count := p.plan.ChunkCount()
	records := make([]ledger.ChunkRecord, 0, count)
	if count == 0 {
		return records, nil
	}

	// A slot is held from the moment a chunk is read until it is written
	slots := make(chan struct{}, p.maxThreads)
	jobs := make(chan chunker.Chunk)
	results := make(chan chunkResult, p.maxThreads)
	stop := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)

		for i := 0; i < count; i++ {
			select {
			case slots <- struct{}{}:
			case <-stop:
				return
			}

			if err := ctx.Err(); err != nil {
				results <- chunkResult{index: i, err: err}
				return
			}

			chunk, err := p.reader.Next()
			if err != nil {
				results <- chunkResult{index: i, err: fmt.Errorf("read input: %w", err)}
				return
			}

			select {
			case jobs <- chunk:
			case <-stop:
				chunk.Release()
				return
			}
		}
	}()

	for w := 0; w < p.maxThreads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range jobs {
				res := p.process(&chunk)
				chunk.Release()
				results <- res
			}
		}()
	}

	pending := make(map[int]chunkResult)
	var failure error

	for next := 0; next < count && failure == nil; {
		res, ok := pending[next]
		if !ok {
			select {
			case r := <-results:
				pending[r.index] = r
			case <-ctx.Done():
				failure = ctx.Err()
			}
			continue
		}
		delete(pending, next)

		if res.err != nil {
			failure = p.chunkFailure(next, res.err)
			break
		}
		if err := ctx.Err(); err != nil {
			res.release()
			failure = err
			break
		}

		if _, err := p.out.Write(res.sel.Data); err != nil {
			res.release()
			failure = &ChunkError{Index: next, Err: fmt.Errorf("write output: %w", err)}
			break
		}
		records = append(records, p.record(res))
		res.release()
		<-slots

		if p.progressCb != nil {
			p.progressCb(ProgressEvent{
				Type:           EventChunkComplete,
				Index:          next,
				Current:        int64(next + 1),
				Total:          int64(count),
				CurrentBytes:   res.sel.OriginalSize,
				CompressedSize: res.sel.CompressedSize,
				Strategy:       res.sel.Strategy,
			})
		}
		next++
	}

	close(stop)
	wg.Wait()
	close(results)
	for r := range results {
		r.release()
	}
	for _, r := range pending {
		r.release()
	}

	if failure != nil {
		return nil, failure
	}
	return records, nil
}

func (p *pipeline) chunkFailure(index int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if p.verbose {
		p.logger.Debug("chunk failed", "chunk", index, "error", err)
	}
	return &ChunkError{Index: index, Err: err}
}

// process selects the winning output for one chunk
func (p *pipeline) process(chunk *chunker.Chunk) chunkResult {
	if p.progressCb != nil {
		p.progressCb(ProgressEvent{
			Type:         EventChunkStart,
			Index:        chunk.Index,
			Total:        int64(p.plan.ChunkCount()),
			CurrentBytes: chunk.OrigSize,
		})
	}

	bufPtr := getOutputBuffer()
	sel, err := p.selector.SelectHashed(*bufPtr, chunk.Data, chunk.Hash)

	stored := false
	if errors.Is(err, selector.ErrNoImprovement) && p.storeRaw {
		sel = selector.Selection{
			Strategy:       codec.StrategyStored,
			OriginalSize:   chunk.OrigSize,
			CompressedSize: chunk.OrigSize,
			Data:           append((*bufPtr)[:0], chunk.Data...),
		}
		err = nil
		stored = true
	}
	if err != nil {
		putOutputBuffer(bufPtr)
		return chunkResult{index: chunk.Index, err: err}
	}

	// Keep whatever capacity the codec grew the buffer to
	*bufPtr = sel.Data[:0]

	return chunkResult{
		index:  chunk.Index,
		sel:    sel,
		hash:   chunk.Hash,
		stored: stored,
		buf:    bufPtr,
	}
}

// record builds the ledger entry for a written chunk and updates the result
func (p *pipeline) record(res chunkResult) ledger.ChunkRecord {
	p.result.ChunksProcessed++
	p.result.StrategyWins[res.sel.Strategy]++
	if res.stored {
		p.result.StoredChunks++
	}

	if p.verbose {
		p.logger.Debug("chunk written",
			"chunk", res.index,
			"size", res.sel.OriginalSize,
			"compressed", res.sel.CompressedSize,
			"strategy", res.sel.Strategy.String(),
			"cache_hit", res.sel.CacheHit,
		)
	}

	return ledger.ChunkRecord{
		UncompressedSize: res.sel.OriginalSize,
		CompressedSize:   res.sel.CompressedSize,
		Strategy:         res.sel.Strategy,
		Hash:             hex.EncodeToString(res.hash[:]),
	}
}
