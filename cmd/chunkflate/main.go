// cmd/chunkflate/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Flags shared by every subcommand
var (
	configPath string
	logFormat  string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "chunkflate",
	Short: "chunkflate - per-chunk strategy selection for file compression",
	Long: `chunkflate splits a file into fixed-size chunks, compresses every chunk with
several strategies, keeps the smallest result and records the choices in a
JSON ledger so the output can be restored chunk by chunk.`,
	Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML defaults file (default $CHUNKFLATE_CONFIG)")
	flags.StringVar(&logFormat, "log-format", "", "Log format: auto, text or json")
	flags.BoolVar(&verbose, "verbose", false, "Show detailed output")
	flags.BoolVar(&quiet, "quiet", false, "Minimal output (overrides verbose)")
}
