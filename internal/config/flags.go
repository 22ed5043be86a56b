package config

import (
	"github.com/spf13/pflag"

	apperrors "github.com/agbru/riemann/internal/errors"
)

// ApplyFlags copies every flag explicitly set on fs into cfg. Flags are
// matched by configuration key (see BindKey); keys with no flag on fs are
// ignored, so subcommands only declare the flags they use.
func ApplyFlags(cfg *AppConfig, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	var err error
	apply := func(key string, fn func(name string) error) {
		f := lookupKey(fs, key)
		if err != nil || f == nil || !f.Changed {
			return
		}
		if ferr := fn(f.Name); ferr != nil {
			err = apperrors.NewConfigError("flag --%s: %v", f.Name, ferr)
		}
	}

	apply("func", func(n string) (e error) { cfg.Integrand, e = fs.GetString(n); return })
	apply("a", func(n string) (e error) { cfg.A, e = fs.GetFloat64(n); return })
	apply("b", func(n string) (e error) { cfg.B, e = fs.GetFloat64(n); return })
	apply("n-iter", func(n string) (e error) { cfg.NIter, e = fs.GetInt(n); return })
	apply("n-jobs", func(n string) (e error) { cfg.NJobs, e = fs.GetInt(n); return })
	apply("backend", func(n string) (e error) { cfg.Backend, e = fs.GetString(n); return })
	apply("remainder", func(n string) (e error) { cfg.Remainder, e = fs.GetString(n); return })
	apply("log-level", func(n string) (e error) { cfg.LogLevel, e = fs.GetString(n); return })
	apply("log-format", func(n string) (e error) { cfg.LogFormat, e = fs.GetString(n); return })
	apply("no-color", func(n string) (e error) { cfg.NoColor, e = fs.GetBool(n); return })
	apply("jobs", func(n string) (e error) { cfg.Bench.Jobs, e = fs.GetIntSlice(n); return })
	apply("repeat", func(n string) (e error) { cfg.Bench.Repeat, e = fs.GetInt(n); return })
	apply("bench-backend", func(n string) (e error) { cfg.Bench.Backend, e = fs.GetString(n); return })
	apply("metrics-addr", func(n string) (e error) { cfg.Bench.MetricsAddr, e = fs.GetString(n); return })
	return err
}
