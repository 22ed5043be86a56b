// Package logging provides a unified logging interface for riemann.
// It abstracts the underlying logging implementation (zerolog, log/slog with
// tint, or the standard library logger), allowing consistent logging across
// components while supporting multiple backends.
package logging
