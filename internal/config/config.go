// Package config builds the riemann command's effective configuration from
// defaults, an optional YAML file, RIEMANN_* environment variables and
// command-line flags, in increasing order of priority.
package config

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"slices"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/riemann/internal/errors"
	"github.com/agbru/riemann/internal/logging"
	"github.com/agbru/riemann/internal/partition"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "RIEMANN"

// Backend names accepted by the integrate and bench commands.
const (
	BackendSequential = "seq"
	BackendThreads    = "threads"
	BackendProcesses  = "processes"
	BackendBoth       = "both"
)

// AppConfig holds the configuration of one riemann invocation.
type AppConfig struct {
	Integrand string  `yaml:"integrand"`
	A         float64 `yaml:"a"`
	B         float64 `yaml:"b"`
	NIter     int     `yaml:"n_iter"`
	NJobs     int     `yaml:"n_jobs"`
	Backend   string  `yaml:"backend"`
	Remainder string  `yaml:"remainder"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	NoColor   bool   `yaml:"no_color"`

	Bench BenchConfig `yaml:"bench"`
}

// BenchConfig holds the settings of the bench command.
type BenchConfig struct {
	Jobs        []int  `yaml:"jobs"`
	Repeat      int    `yaml:"repeat"`
	Backend     string `yaml:"backend"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Integrand: "cos",
		A:         0,
		B:         math.Pi,
		NIter:     100_000,
		NJobs:     2,
		Backend:   BackendThreads,
		Remainder: partition.Distribute.String(),
		LogLevel:  "info",
		LogFormat: "console",
		Bench: BenchConfig{
			Jobs:    DefaultBenchJobs(),
			Repeat:  3,
			Backend: BackendBoth,
		},
	}
}

// Load returns the effective configuration: defaults, then the YAML file at
// path when path is not empty, then environment overrides, then the flags
// explicitly set on fs. fs may be nil. The result is validated.
func Load(path string, fs *pflag.FlagSet) (AppConfig, error) {
	cfg := Default()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := ApplyEnv(&cfg, fs); err != nil {
		return cfg, err
	}
	if err := ApplyFlags(&cfg, fs); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile decodes the YAML file at path over cfg. Keys absent from the file
// keep their current values; unknown keys are rejected.
func LoadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfigError("reading config file: %v", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewConfigError("parsing config file %s: %v", path, err)
	}
	return nil
}

// Validate checks the choices that do not belong to the integrator itself.
// Interval, n_iter and n_jobs are left to the integrator, which reports them
// as invalid arguments.
func (c AppConfig) Validate() error {
	if !slices.Contains([]string{BackendSequential, BackendThreads, BackendProcesses}, c.Backend) {
		return apperrors.NewConfigError("unknown backend %q (want seq, threads or processes)", c.Backend)
	}
	if !slices.Contains([]string{BackendThreads, BackendProcesses, BackendBoth}, c.Bench.Backend) {
		return apperrors.NewConfigError("unknown bench backend %q (want threads, processes or both)", c.Bench.Backend)
	}
	if _, err := partition.ParsePolicy(c.Remainder); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if !slices.Contains(logging.Formats, c.LogFormat) {
		return apperrors.NewConfigError("unknown log format %q", c.LogFormat)
	}
	if len(c.Bench.Jobs) == 0 {
		return apperrors.NewConfigError("bench needs at least one job count")
	}
	if c.Bench.Repeat <= 0 {
		return apperrors.NewConfigError("bench repeat must be positive, got %d", c.Bench.Repeat)
	}
	return nil
}

// RemainderPolicy returns the parsed remainder policy. It assumes Validate
// has passed.
func (c AppConfig) RemainderPolicy() partition.RemainderPolicy {
	p, _ := partition.ParsePolicy(c.Remainder)
	return p
}
