package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agbru/riemann/internal/config"
	apperrors "github.com/agbru/riemann/internal/errors"
	"github.com/agbru/riemann/internal/integrand"
	"github.com/agbru/riemann/internal/logging"
	"github.com/agbru/riemann/internal/procpool"
	"github.com/agbru/riemann/internal/ui"
)

// Version is set at build time with -ldflags "-X ...app.Version=...".
var Version = "dev"

// Application represents one riemann invocation.
type Application struct {
	Registry  *integrand.Registry
	ErrWriter io.Writer
	// WorkerOptions configures the process backend's worker launch.
	WorkerOptions procpool.Options

	args   []string
	config config.AppConfig
	logger logging.Logger
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithRegistry sets the registry used to resolve integrands in-process.
// Worker processes always resolve against integrand.Default.
func WithRegistry(r *integrand.Registry) AppOption {
	return func(a *Application) { a.Registry = r }
}

// WithWorkerOptions sets how process-backend workers are launched.
func WithWorkerOptions(o procpool.Options) AppOption {
	return func(a *Application) { a.WorkerOptions = o }
}

// New creates an Application for the given command line; args[0] is the
// program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) *Application {
	a := &Application{ErrWriter: errWriter, logger: logging.Nop}
	if len(args) > 0 {
		a.args = args[1:]
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Registry == nil {
		a.Registry = integrand.Default()
	}
	return a
}

// Run executes the command line and returns the process exit code. SIGINT
// and SIGTERM cancel ctx.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	root := a.newRootCommand()
	root.SetArgs(a.args)
	root.SetOut(out)
	root.SetErr(a.ErrWriter)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return apperrors.ExitSuccess
	}
	if !errors.Is(err, context.Canceled) {
		a.logger.Debug("command failed", logging.Err(err))
	}
	fmt.Fprintf(a.ErrWriter, "%sError:%s %v\n", ui.ColorRed(), ui.ColorReset(), err)
	return apperrors.ExitCode(err)
}

func (a *Application) newRootCommand() *cobra.Command {
	def := config.Default()
	root := &cobra.Command{
		Use:           "riemann",
		Short:         "Left-rectangle Riemann integration, sequential or in parallel",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperrors.NewConfigError("%v", err)
	})

	pf := root.PersistentFlags()
	pf.String("config", "", "YAML configuration file (env RIEMANN_CONFIG)")
	pf.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
	pf.String("log-format", def.LogFormat, "log format: console, json, pretty")
	pf.Bool("no-color", def.NoColor, "disable colored output")
	pf.String("remainder", def.Remainder, "leftover samples when n_jobs does not divide n_iter: distribute or truncate")

	root.AddCommand(a.newIntegrateCommand(def), a.newDemoCommand(), a.newBenchCommand(def))
	return root
}

// setup resolves the configuration for cmd and initializes logging and
// themes from it.
func (a *Application) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if !cmd.Flags().Changed("config") {
		path = os.Getenv(config.EnvPrefix + "_CONFIG")
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := logging.New(a.ErrWriter, logging.Options{
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		NoColor: cfg.NoColor,
	})
	if err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	ui.InitTheme(cfg.NoColor)

	a.config = cfg
	a.logger = logger
	if a.WorkerOptions.Logger == nil {
		a.WorkerOptions.Logger = logger
	}
	logger.Debug("configuration loaded",
		logging.String("command", cmd.Name()), logging.String("config", path),
		logging.String("backend", cfg.Backend), logging.Int("n_iter", cfg.NIter),
		logging.Int("n_jobs", cfg.NJobs), logging.String("remainder", cfg.Remainder))
	return nil
}

// noArgs rejects positional arguments as a configuration error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	return nil
}
