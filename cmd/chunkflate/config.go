// cmd/chunkflate/config.go
package main

import (
	"github.com/spf13/pflag"

	"github.com/creativeyann17/go-chunkflate/internal/config"
)

var _ pflag.Value = (*config.ByteSize)(nil)

// loadConfig reads --config when given, otherwise $CHUNKFLATE_CONFIG
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// resolveLogFormat lets an explicit --log-format win over the config file
func resolveLogFormat(flags *pflag.FlagSet, cfg *config.Config) string {
	if flags.Changed("log-format") {
		return logFormat
	}
	return cfg.LogFormat
}
