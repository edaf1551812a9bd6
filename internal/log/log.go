// SPDX-License-Identifier: Unlicense OR MIT

// Package log configures the process logger. On Android, standard
// output and standard error are forwarded to logcat.
package log

import (
	"io"
	"log/slog"
)

// Setup installs a text logger writing to w at level as the default
// slog logger, and returns it.
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	return l
}
