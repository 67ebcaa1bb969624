package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfigPath = "GEMMBENCH_CONFIG"

// Config represents the gemmbench configuration file
// (~/.config/gemmbench/config.yaml). Scalars are pointers so we can tell
// "not set" from zero values.
type Config struct {
	// Benchmark and verify defaults
	Sizes     []int    `yaml:"sizes"`
	Threads   []int    `yaml:"threads"`
	Kernels   []string `yaml:"kernels"`
	Warmup    *int64   `yaml:"warmup"`
	Runs      *int64   `yaml:"runs"`
	Seed      *int64   `yaml:"seed"`
	Tolerance *float64 `yaml:"tolerance"`

	// Output
	Output    string `yaml:"output"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
	MaxDimension  *int64 `yaml:"max_dimension"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "gemmbench", "config.yaml")
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. A missing file yields a zero Config; a file that exists but
// does not parse is an error.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
	}
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// benchSettings holds the values shared by the bench and verify commands
// after flags and config are merged.
type benchSettings struct {
	sizes     []int
	threads   []int
	kernels   []string
	warmup    int64
	runs      int64
	seed      int64
	tolerance float64
	output    string
}

// applyBenchConfig fills s from cfg for every flag the user did not set.
func applyBenchConfig(c *cli.Command, cfg Config, s *benchSettings) {
	if len(cfg.Sizes) > 0 && !c.IsSet("sizes") {
		s.sizes = cfg.Sizes
	}
	if len(cfg.Threads) > 0 && !c.IsSet("threads") {
		s.threads = cfg.Threads
	}
	if len(cfg.Kernels) > 0 && !c.IsSet("kernels") {
		s.kernels = cfg.Kernels
	}
	if cfg.Warmup != nil && !c.IsSet("warmup") {
		s.warmup = *cfg.Warmup
	}
	if cfg.Runs != nil && !c.IsSet("runs") {
		s.runs = *cfg.Runs
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		s.seed = *cfg.Seed
	}
	if cfg.Tolerance != nil && !c.IsSet("tolerance") {
		s.tolerance = *cfg.Tolerance
	}
	if cfg.Output != "" && !c.IsSet("output") {
		s.output = cfg.Output
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxDim *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	applyMaxDimension(c, cfg, maxDim)
}

// applyMaxDimension is shared by serve and multiply so both honour
// max_dimension from the config file.
func applyMaxDimension(c *cli.Command, cfg Config, maxDim *int64) {
	if cfg.MaxDimension != nil && !c.IsSet("max-dimension") {
		*maxDim = *cfg.MaxDimension
	}
}
