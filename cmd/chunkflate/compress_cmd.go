// cmd/chunkflate/compress_cmd.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/creativeyann17/go-chunkflate/internal/codec"
	"github.com/creativeyann17/go-chunkflate/internal/config"
	"github.com/creativeyann17/go-chunkflate/internal/ledger"
	"github.com/creativeyann17/go-chunkflate/pkg/compress"
)

func init() {
	rootCmd.AddCommand(compressCmd())
}

func compressCmd() *cobra.Command {
	var inputPath, outputPath, metadataPath, inputID string
	var chunkSize config.ByteSize
	var maxThreads int
	var strategies string
	var parallelTrials bool
	var storeRaw bool
	var ledgerMode string
	var selectionCache int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "compress",
		Short: "Compress a file chunk by chunk and record the choices in a ledger",
		Long: `Compress splits the input into fixed-size chunks. Every chunk is compressed
with each candidate strategy and the smallest result is written to the output.
The chosen strategy and sizes of every chunk are recorded in the metadata ledger
under the input identifier, replacing the previous run for that input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if !flags.Changed("chunk-size") {
				chunkSize = cfg.ChunkSize
			}
			if !flags.Changed("threads") {
				maxThreads = cfg.Threads
			}
			if !flags.Changed("strategies") {
				strategies = cfg.Strategies
			}
			if !flags.Changed("parallel-trials") {
				parallelTrials = cfg.ParallelTrials
			}
			if !flags.Changed("store-raw") {
				storeRaw = cfg.StoreRaw
			}
			if !flags.Changed("ledger-mode") {
				ledgerMode = cfg.LedgerMode
			}
			if !flags.Changed("selection-cache") {
				selectionCache = cfg.SelectionCache
			}

			if chunkSize == 0 {
				return fmt.Errorf("--chunk-size is required (or chunk_size in the config file)")
			}

			set, err := codec.ParseSet(strategies)
			if err != nil {
				return err
			}
			mode, err := ledger.ParseMode(ledgerMode)
			if err != nil {
				return err
			}

			logger, err := newLogger(resolveLogFormat(rootCmd.PersistentFlags(), cfg))
			if err != nil {
				return err
			}

			opts := &compress.Options{
				InputPath:          inputPath,
				OutputPath:         outputPath,
				MetadataPath:       metadataPath,
				InputID:            inputID,
				ChunkSize:          uint64(chunkSize),
				MaxThreads:         maxThreads,
				StrategySet:        set,
				ParallelTrials:     parallelTrials,
				StoreRaw:           storeRaw,
				LedgerMode:         mode,
				SelectionCacheSize: selectionCache,
				ToolVersion:        version,
				DryRun:             dryRun,
				Verbose:            verbose && !quiet,
				Logger:             logger,
			}

			// Validate and set defaults
			if err := opts.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			// Logging helper
			log := func(format string, args ...interface{}) {
				if !quiet {
					fmt.Printf(format+"\n", args...)
				}
			}

			log("Starting compression...")
			log("  Input:       %s", opts.InputPath)
			if !dryRun {
				log("  Output:      %s", opts.OutputPath)
				log("  Metadata:    %s", opts.MetadataPath)
			}
			log("  Chunk size:  %s", chunkSize)
			log("  Max threads: %d", opts.MaxThreads)
			log("  Strategies:  %s", opts.StrategySet)
			if dryRun {
				log("  Mode:        DRY-RUN (no data written)")
			}
			log("")

			warnMemory(opts, log)

			var progressCb compress.ProgressCallback
			var waitProgress func()
			if !quiet && stdoutIsTerminal() {
				cb, progress := compress.ProgressBarCallback("Compressing")
				progressCb = cb
				waitProgress = progress.Wait
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			result, err := compress.Compress(ctx, opts, progressCb)

			// Finish progress bar before printing summary
			if waitProgress != nil {
				waitProgress()
			}

			if err != nil {
				return err
			}

			if !quiet {
				fmt.Println()
				fmt.Print(compress.FormatSummary(result))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file receiving the compressed chunks")
	cmd.Flags().StringVarP(&metadataPath, "metadata", "m", "", "Metadata ledger (.json, or .cbor)")
	cmd.Flags().StringVar(&inputID, "input-id", "", "Ledger key for the input (default: input path)")
	cmd.Flags().VarP(&chunkSize, "chunk-size", "c", "Chunk size, e.g. 4KiB, 32MiB or 33554432")
	cmd.Flags().IntVarP(&maxThreads, "threads", "t", 0, "Max chunks in flight (default: number of CPUs)")
	cmd.Flags().StringVarP(&strategies, "strategies", "s", string(codec.SetDeflate), "Strategy set: deflate or extended")
	cmd.Flags().BoolVar(&parallelTrials, "parallel-trials", false, "Try the strategies of one chunk concurrently")
	cmd.Flags().BoolVar(&storeRaw, "store-raw", false, "Store incompressible chunks verbatim instead of failing")
	cmd.Flags().StringVar(&ledgerMode, "ledger-mode", string(ledger.ModeReplace), "Ledger mode: replace or history")
	cmd.Flags().IntVar(&selectionCache, "selection-cache", 0, "Remember winners of identical chunks (0=off, -1=unbounded)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Simulate without writing output or ledger")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// warnMemory prints a note when the chunks in flight may not fit in RAM
func warnMemory(opts *compress.Options, log func(string, ...interface{})) {
	total, err := totalSystemMemory()
	if err != nil || total == 0 {
		return
	}

	// A chunk in flight holds its read buffer plus the best and trial outputs
	perChunk := opts.ChunkSize * 3
	if opts.ParallelTrials {
		strategies, _ := opts.StrategySet.Strategies()
		perChunk = opts.ChunkSize * uint64(2+len(strategies))
	}
	needed := perChunk * uint64(opts.MaxThreads)

	if needed > total/2 {
		log("Warning: %d threads x %s chunks may use %s of %s RAM; consider fewer threads",
			opts.MaxThreads, compress.FormatSize(opts.ChunkSize),
			compress.FormatSize(needed), compress.FormatSize(total))
		log("")
	}
}
