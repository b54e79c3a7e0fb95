// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli holds the pieces the hostmcp binaries share.
package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewLogger creates the process logger on stderr. A terminal gets
// slog.TextHandler; anything else (a supervising editor, a pipe, a
// log collector) gets slog.JSONHandler. verbose lowers the level to
// Debug.
func NewLogger(verbose bool) *slog.Logger {
	output := os.Stderr
	return newLogger(output, term.IsTerminal(int(output.Fd())), verbose)
}

func newLogger(output io.Writer, terminal, verbose bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		options.Level = slog.LevelDebug
	}
	if terminal {
		return slog.New(slog.NewTextHandler(output, options))
	}
	return slog.New(slog.NewJSONHandler(output, options))
}
