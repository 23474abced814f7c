// internal/config/config.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable holding the config file path
const EnvConfig = "CHUNKFLATE_CONFIG"

// Config holds defaults for the compress command. Flags set on the
// command line take precedence over every field.
type Config struct {
	// ChunkSize is the requested chunk length. Zero means the flag is required.
	ChunkSize ByteSize `yaml:"chunk_size"`

	// Threads bounds the number of chunks in flight
	Threads int `yaml:"threads"`

	// Strategies names the strategy set ("deflate" or "extended")
	Strategies string `yaml:"strategies"`

	// ParallelTrials runs the strategy trials of one chunk concurrently
	ParallelTrials bool `yaml:"parallel_trials"`

	// StoreRaw keeps incompressible chunks verbatim instead of failing
	StoreRaw bool `yaml:"store_raw"`

	// LedgerMode is "replace" or "history"
	LedgerMode string `yaml:"ledger_mode"`

	// SelectionCache is the number of chunk winners remembered by content
	// hash. Zero disables the cache, negative means unbounded.
	SelectionCache int `yaml:"selection_cache"`

	// LogFormat is "auto", "text" or "json"
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Threads:    runtime.NumCPU(),
		Strategies: "deflate",
		LedgerMode: "replace",
		LogFormat:  "auto",
	}
}

// Load reads the file named by CHUNKFLATE_CONFIG, or returns the defaults
// when the variable is unset. There is no search path.
func Load() (*Config, error) {
	path := os.Getenv(EnvConfig)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a YAML config file on top of the defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate rejects values that can never be valid regardless of flags
func (c *Config) Validate() error {
	if c.Threads < 0 {
		return fmt.Errorf("threads must not be negative, got %d", c.Threads)
	}
	switch c.LogFormat {
	case "", "auto", "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q", c.LogFormat)
	}
	return nil
}
