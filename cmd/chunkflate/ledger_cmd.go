// cmd/chunkflate/ledger_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creativeyann17/go-chunkflate/internal/ledger"
	"github.com/creativeyann17/go-chunkflate/pkg/compress"
)

func init() {
	rootCmd.AddCommand(ledgerCmd())
}

func ledgerCmd() *cobra.Command {
	var metadataPath string
	var showChunks bool
	var remove bool

	cmd := &cobra.Command{
		Use:   "ledger [input-id...]",
		Short: "List or remove the runs recorded in a metadata ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			led, err := ledger.Load(metadataPath)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			if remove {
				if len(args) == 0 {
					return fmt.Errorf("--remove needs at least one input id")
				}
				for _, id := range args {
					if !led.Remove(id) {
						return fmt.Errorf("no run recorded for %q", id)
					}
				}
				if err := led.Persist(metadataPath); err != nil {
					return err
				}
				fmt.Printf("%s: removed %d input(s)\n", metadataPath, len(args))
				return nil
			}

			inputs := args
			if len(inputs) == 0 {
				inputs = led.Inputs()
			}
			if len(inputs) == 0 {
				fmt.Printf("%s: no runs recorded\n", metadataPath)
				return nil
			}

			for _, id := range inputs {
				runs := led.Runs(id)
				if len(runs) == 0 {
					return fmt.Errorf("no run recorded for %q", id)
				}
				fmt.Printf("%s\n", id)
				for i, run := range runs {
					ratio := 0.0
					if run.UncompressedFileSize > 0 {
						ratio = float64(run.CompressedSize()) / float64(run.UncompressedFileSize) * 100
					}
					fmt.Printf("  run %d: %d chunks x %s, %s -> %s (%.1f%%)",
						i+1, run.ChunkCount,
						compress.FormatSize(run.RequestedChunkSize),
						compress.FormatSize(run.UncompressedFileSize),
						compress.FormatSize(run.CompressedSize()), ratio)
					if run.ToolVersion != "" {
						fmt.Printf(" [%s]", run.ToolVersion)
					}
					fmt.Println()

					if showChunks {
						for j, c := range run.Chunks {
							fmt.Printf("    %4d  %10d -> %-10d %s\n",
								j, c.UncompressedSize, c.CompressedSize, c.Strategy)
						}
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&metadataPath, "metadata", "m", "", "Metadata ledger (required)")
	cmd.Flags().BoolVar(&showChunks, "chunks", false, "Also list every chunk")
	cmd.Flags().BoolVar(&remove, "remove", false, "Drop every run of the given inputs and rewrite the ledger")

	_ = cmd.MarkFlagRequired("metadata")

	return cmd
}
