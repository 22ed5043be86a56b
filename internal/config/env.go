package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"

	apperrors "github.com/agbru/riemann/internal/errors"
)

// envValues mirrors the overridable fields of AppConfig. Pointer and slice
// fields stay nil when their variable is unset, which is how ApplyEnv tells
// "unset" from "set to the zero value".
type envValues struct {
	Integrand *string  `envconfig:"FUNC"`
	A         *float64 `envconfig:"A"`
	B         *float64 `envconfig:"B"`
	NIter     *int     `envconfig:"N_ITER"`
	NJobs     *int     `envconfig:"N_JOBS"`
	Backend   *string  `envconfig:"BACKEND"`
	Remainder *string  `envconfig:"REMAINDER"`

	LogLevel  *string `envconfig:"LOG_LEVEL"`
	LogFormat *string `envconfig:"LOG_FORMAT"`
	NoColor   *bool   `envconfig:"NO_COLOR"`

	BenchJobs    []int   `envconfig:"BENCH_JOBS"`
	BenchRepeat  *int    `envconfig:"BENCH_REPEAT"`
	BenchBackend *string `envconfig:"BENCH_BACKEND"`
	MetricsAddr  *string `envconfig:"METRICS_ADDR"`
}

// envOverride ties one environment value to the configuration key of the
// flag that outranks it.
type envOverride struct {
	key   string
	apply func(*AppConfig, *envValues) bool
}

func set[T any](dst *T, src *T) bool {
	if src == nil {
		return false
	}
	*dst = *src
	return true
}

var envOverrides = []envOverride{
	{"func", func(c *AppConfig, e *envValues) bool { return set(&c.Integrand, e.Integrand) }},
	{"a", func(c *AppConfig, e *envValues) bool { return set(&c.A, e.A) }},
	{"b", func(c *AppConfig, e *envValues) bool { return set(&c.B, e.B) }},
	{"n-iter", func(c *AppConfig, e *envValues) bool { return set(&c.NIter, e.NIter) }},
	{"n-jobs", func(c *AppConfig, e *envValues) bool { return set(&c.NJobs, e.NJobs) }},
	{"backend", func(c *AppConfig, e *envValues) bool { return set(&c.Backend, e.Backend) }},
	{"remainder", func(c *AppConfig, e *envValues) bool { return set(&c.Remainder, e.Remainder) }},
	{"log-level", func(c *AppConfig, e *envValues) bool { return set(&c.LogLevel, e.LogLevel) }},
	{"log-format", func(c *AppConfig, e *envValues) bool { return set(&c.LogFormat, e.LogFormat) }},
	{"no-color", func(c *AppConfig, e *envValues) bool { return set(&c.NoColor, e.NoColor) }},
	{"jobs", func(c *AppConfig, e *envValues) bool {
		if e.BenchJobs == nil {
			return false
		}
		c.Bench.Jobs = e.BenchJobs
		return true
	}},
	{"repeat", func(c *AppConfig, e *envValues) bool { return set(&c.Bench.Repeat, e.BenchRepeat) }},
	{"bench-backend", func(c *AppConfig, e *envValues) bool { return set(&c.Bench.Backend, e.BenchBackend) }},
	{"metrics-addr", func(c *AppConfig, e *envValues) bool { return set(&c.Bench.MetricsAddr, e.MetricsAddr) }},
}

// ApplyEnv applies RIEMANN_* environment variables to cfg, skipping any value
// whose flag was explicitly set on fs.
//
// Supported variables: FUNC, A, B, N_ITER, N_JOBS, BACKEND, REMAINDER,
// LOG_LEVEL, LOG_FORMAT, NO_COLOR, BENCH_JOBS (comma separated),
// BENCH_REPEAT, BENCH_BACKEND, METRICS_ADDR.
func ApplyEnv(cfg *AppConfig, fs *pflag.FlagSet) error {
	var env envValues
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return apperrors.NewConfigError("reading environment: %v", err)
	}
	for _, o := range envOverrides {
		if isFlagSet(fs, o.key) {
			continue
		}
		o.apply(cfg, &env)
	}
	return nil
}

// KeyAnnotation is the flag annotation that maps a flag to a configuration
// key other than its own name. The bench command uses it to bind its
// --backend flag to "bench-backend".
const KeyAnnotation = "riemann_config_key"

// BindKey maps the flag called name on fs to the configuration key.
func BindKey(fs *pflag.FlagSet, name, key string) error {
	return fs.SetAnnotation(name, KeyAnnotation, []string{key})
}

// lookupKey returns the flag of fs bound to key, or nil.
func lookupKey(fs *pflag.FlagSet, key string) *pflag.Flag {
	if fs == nil {
		return nil
	}
	var found *pflag.Flag
	fs.VisitAll(func(f *pflag.Flag) {
		if found == nil && flagKey(f) == key {
			found = f
		}
	})
	return found
}

func flagKey(f *pflag.Flag) string {
	if k := f.Annotations[KeyAnnotation]; len(k) > 0 {
		return k[0]
	}
	return f.Name
}

// isFlagSet reports whether the flag bound to key exists on fs and was set on
// the command line.
func isFlagSet(fs *pflag.FlagSet, key string) bool {
	f := lookupKey(fs, key)
	return f != nil && f.Changed
}
