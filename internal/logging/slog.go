package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/rs/zerolog"
)

// SlogAdapter implements Logger on top of log/slog.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps an existing slog.Logger.
func NewSlogAdapter(l *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: l}
}

// NewPrettyLogger returns a colorized human-readable logger using tint.
func NewPrettyLogger(w io.Writer, level slog.Level, noColor bool) *SlogAdapter {
	h := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    noColor,
	})
	return NewSlogAdapter(slog.New(h))
}

// Debug logs a debug-level message.
func (s *SlogAdapter) Debug(msg string, fields ...Field) {
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs(fields)...)
}

// Info logs an info-level message.
func (s *SlogAdapter) Info(msg string, fields ...Field) {
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, msg, attrs(fields)...)
}

// Error logs an error-level message with the given cause.
func (s *SlogAdapter) Error(msg string, err error, fields ...Field) {
	a := append([]slog.Attr{tint.Err(err)}, attrs(fields)...)
	s.logger.LogAttrs(context.Background(), slog.LevelError, msg, a...)
}

// Printf logs a formatted info-level message.
func (s *SlogAdapter) Printf(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...))
}

// Println logs its arguments at info level, separated by spaces.
func (s *SlogAdapter) Println(args ...any) {
	s.logger.Info(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

func attrs(fields []Field) []slog.Attr {
	out := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

// Options selects a backend and verbosity for New.
type Options struct {
	// Format is one of "json", "console" or "pretty".
	Format string
	// Level is one of "debug", "info", "warn", "error".
	Level   string
	NoColor bool
}

// Formats lists the values accepted by Options.Format.
var Formats = []string{"console", "json", "pretty"}

// ParseLevel reads a level name. The empty string means info.
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return parsed, nil
}

// New builds the Logger described by opts, writing to w.
func New(w io.Writer, opts Options) (Logger, error) {
	zlevel, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	switch opts.Format {
	case "", "console":
		zl := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: opts.NoColor, TimeFormat: time.Kitchen}).
			Level(zlevel).With().Timestamp().Logger()
		return NewZerologAdapter(zl), nil
	case "json":
		zl := zerolog.New(w).Level(zlevel).With().Timestamp().Logger()
		return NewZerologAdapter(zl), nil
	case "pretty":
		return NewPrettyLogger(w, slogLevel(zlevel), opts.NoColor), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
}

func slogLevel(l zerolog.Level) slog.Level {
	switch {
	case l <= zerolog.DebugLevel:
		return slog.LevelDebug
	case l == zerolog.InfoLevel:
		return slog.LevelInfo
	case l == zerolog.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
