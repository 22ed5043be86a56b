package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/riemann/internal/errors"
	"github.com/agbru/riemann/internal/partition"
)

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("func", "cos", "")
	fs.Float64("a", 0, "")
	fs.Float64("b", 1, "")
	fs.Int("n-iter", 100_000, "")
	fs.Int("n-jobs", 2, "")
	fs.String("backend", "threads", "")
	fs.String("remainder", "distribute", "")
	fs.String("log-level", "info", "")
	fs.String("log-format", "console", "")
	fs.Bool("no-color", false, "")
	return fs
}

func newBenchFlagSet(t *testing.T) *pflag.FlagSet {
	fs := pflag.NewFlagSet("bench", pflag.ContinueOnError)
	fs.IntSlice("jobs", []int{1, 2}, "")
	fs.Int("repeat", 3, "")
	fs.String("backend", "both", "")
	fs.String("metrics-addr", "", "")
	require.NoError(t, BindKey(fs, "backend", "bench-backend"))
	return fs
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "riemann.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 100_000, cfg.NIter)
	assert.Equal(t, 2, cfg.NJobs)
	assert.Equal(t, "distribute", cfg.Remainder)
	assert.Equal(t, partition.Distribute, cfg.RemainderPolicy())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
integrand: "poly:0,0,1"
b: 2
n_jobs: 8
remainder: truncate
bench:
  jobs: [1, 3]
  repeat: 5
`)
	cfg := Default()
	require.NoError(t, LoadFile(path, &cfg))

	assert.Equal(t, "poly:0,0,1", cfg.Integrand)
	assert.Equal(t, 0.0, cfg.A, "absent keys keep their value")
	assert.Equal(t, 2.0, cfg.B)
	assert.Equal(t, 8, cfg.NJobs)
	assert.Equal(t, partition.Truncate, cfg.RemainderPolicy())
	assert.Equal(t, []int{1, 3}, cfg.Bench.Jobs)
	assert.Equal(t, 5, cfg.Bench.Repeat)
	assert.Equal(t, BackendBoth, cfg.Bench.Backend)
}

func TestLoadFile_Empty(t *testing.T) {
	cfg := Default()
	require.NoError(t, LoadFile(writeFile(t, ""), &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "n_threads: 4\n"},
		{"wrong type", "n_iter: many\n"},
		{"malformed", "a: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := LoadFile(writeFile(t, tt.content), &cfg)
			var cfgErr apperrors.ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}

	cfg := Default()
	err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	assert.Equal(t, apperrors.ExitErrorConfig, apperrors.ExitCode(err))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("RIEMANN_FUNC", "sin")
	t.Setenv("RIEMANN_B", "3.5")
	t.Setenv("RIEMANN_N_ITER", "5000")
	t.Setenv("RIEMANN_NO_COLOR", "true")
	t.Setenv("RIEMANN_BENCH_JOBS", "2,4")

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, nil))

	assert.Equal(t, "sin", cfg.Integrand)
	assert.Equal(t, 3.5, cfg.B)
	assert.Equal(t, 5000, cfg.NIter)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, []int{2, 4}, cfg.Bench.Jobs)
	assert.Equal(t, 2, cfg.NJobs, "unset variables leave the value alone")
}

func TestApplyEnv_ZeroValueIsAnOverride(t *testing.T) {
	t.Setenv("RIEMANN_N_JOBS", "0")
	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, nil))
	assert.Equal(t, 0, cfg.NJobs)
}

func TestApplyEnv_Invalid(t *testing.T) {
	t.Setenv("RIEMANN_N_ITER", "lots")
	cfg := Default()
	err := ApplyEnv(&cfg, nil)
	var cfgErr apperrors.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestPrecedence(t *testing.T) {
	path := writeFile(t, "n_iter: 10\nn_jobs: 3\nb: 4\n")
	t.Setenv("RIEMANN_N_ITER", "20")
	t.Setenv("RIEMANN_N_JOBS", "5")

	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{"--n-jobs", "7"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.B, "file beats defaults")
	assert.Equal(t, 20, cfg.NIter, "env beats file")
	assert.Equal(t, 7, cfg.NJobs, "flag beats env")
}

func TestBenchBackendKey(t *testing.T) {
	t.Setenv("RIEMANN_BACKEND", "processes")

	fs := newBenchFlagSet(t)
	require.NoError(t, fs.Parse([]string{"--backend", "threads", "--jobs", "1,8", "--repeat", "2"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, BackendThreads, cfg.Bench.Backend)
	assert.Equal(t, BackendProcesses, cfg.Backend, "bench --backend does not shadow RIEMANN_BACKEND")
	assert.Equal(t, []int{1, 8}, cfg.Bench.Jobs)
	assert.Equal(t, 2, cfg.Bench.Repeat)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"backend", func(c *AppConfig) { c.Backend = "gpu" }},
		{"bench backend", func(c *AppConfig) { c.Bench.Backend = "seq" }},
		{"remainder", func(c *AppConfig) { c.Remainder = "round" }},
		{"log level", func(c *AppConfig) { c.LogLevel = "loud" }},
		{"log format", func(c *AppConfig) { c.LogFormat = "xml" }},
		{"no jobs", func(c *AppConfig) { c.Bench.Jobs = nil }},
		{"repeat", func(c *AppConfig) { c.Bench.Repeat = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, apperrors.ExitErrorConfig, apperrors.ExitCode(err))
		})
	}
}

func TestValidate_LeavesIntegratorArgumentsAlone(t *testing.T) {
	cfg := Default()
	cfg.NIter = 0
	cfg.NJobs = -1
	cfg.A, cfg.B = 1, 0
	assert.NoError(t, cfg.Validate())
}

func TestBenchJobsFor(t *testing.T) {
	assert.Equal(t, []int{1, 2, 4, 6, 8}, benchJobsFor(4))
	assert.Equal(t, []int{1, 2, 4, 6, 8}, benchJobsFor(8))
	assert.Equal(t, []int{1, 2, 4, 6, 8, 16}, benchJobsFor(16))
	assert.NotEmpty(t, DefaultBenchJobs())
}
