// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// LoggerConfig selects the command logger's level and handler.
type LoggerConfig struct {
	Level slog.Level

	// Format is "text", "json", or "auto" (the default): text when
	// Output is a terminal, JSON when it is piped or redirected.
	Format string

	// Output defaults to os.Stderr.
	Output *os.File
}

// NewCommandLogger creates the structured logger for CLI commands.
// Callers scope it with command context via With():
//
//	logger = logger.With("command", "task/update", "task_id", id)
func NewCommandLogger(config LoggerConfig) (*slog.Logger, error) {
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	options := &slog.HandlerOptions{Level: config.Level}

	format := config.Format
	if format == "" || format == "auto" {
		format = "json"
		if term.IsTerminal(int(output.Fd())) {
			format = "text"
		}
	}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(output, options)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(output, options)), nil
	}
	return nil, fmt.Errorf("unknown log format %q (valid: auto, text, json)", config.Format)
}
