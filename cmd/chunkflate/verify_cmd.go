// cmd/chunkflate/verify_cmd.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/creativeyann17/go-chunkflate/pkg/verify"
)

func init() {
	rootCmd.AddCommand(verifyCmd())
}

func verifyCmd() *cobra.Command {
	var inputPath, outputPath, metadataPath, inputID string
	var verifyData bool
	var compareInput bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a compressed output against its ledger",
		Long: `Verify checks a compressed output against the latest ledger run for its input.

By default, performs structural validation (run consistency, output size).
Use --data to also decompress every chunk and check its size and digest,
and --compare-input to compare the restored bytes with the original file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(resolveLogFormat(rootCmd.PersistentFlags(), cfg))
			if err != nil {
				return err
			}

			opts := &verify.Options{
				OutputPath:   outputPath,
				MetadataPath: metadataPath,
				InputID:      inputID,
				InputPath:    inputPath,
				VerifyData:   verifyData,
				CompareInput: compareInput,
				Verbose:      verbose && !quiet,
				Logger:       logger,
			}

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

			log("Verifying output: %s", opts.OutputPath)
			switch {
			case opts.CompareInput:
				log("Mode: Data integrity check against %s", opts.InputPath)
			case opts.VerifyData:
				log("Mode: Full data integrity check")
			default:
				log("Mode: Structural validation only")
			}
			log("")

			var progressCb verify.ProgressCallback
			var waitProgress func()
			if opts.VerifyData && !quiet && stdoutIsTerminal() {
				cb, progress := verify.ProgressBarCallback("Verifying")
				progressCb = cb
				waitProgress = progress.Wait
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			result, err := verify.Verify(ctx, opts, progressCb)
			if waitProgress != nil {
				waitProgress()
			}
			if err != nil && result == nil {
				return err
			}

			// Print summary
			fmt.Println()
			fmt.Print(result.Summary())

			if err != nil {
				return err
			}
			if !result.IsValid() {
				return fmt.Errorf("output verification failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Compressed output to verify (required)")
	cmd.Flags().StringVarP(&metadataPath, "metadata", "m", "", "Metadata ledger (required)")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Original input file (also the default ledger key)")
	cmd.Flags().StringVar(&inputID, "input-id", "", "Ledger key of the run to check (default: input path)")
	cmd.Flags().BoolVar(&verifyData, "data", false, "Verify data integrity by decompressing every chunk")
	cmd.Flags().BoolVar(&compareInput, "compare-input", false, "Compare restored chunks with the input file (implies --data)")

	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("metadata")

	return cmd
}
