// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for liteflow.
//
// The central type is [Command]: a named node with optional nested
// [Command.Subcommands], a [pflag.FlagSet] factory, and a Run
// function. [Command.Execute] routes through the tree, parses flags,
// and prints structured help with examples. Unknown subcommands and
// flags get a "did you mean" suggestion when the Levenshtein distance
// to a known name is at most 3.
//
// Flags are declared on parameter structs with flag, desc, and
// default tags and bound by [FlagsFromParams]. Embedding
// [JSONOutput] adds --json.
//
// [NewCommandLogger] builds the slog logger every command uses, and
// [ExitError] lets a command exit non-zero after printing its own
// report.
package cli
