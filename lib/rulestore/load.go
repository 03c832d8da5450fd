// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rulestore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/liteflow/lib/schema/rule"
)

// Format is the encoding of a rule file, chosen by extension.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// FormatFor returns the format implied by path's extension. Anything
// that is not .json or .jsonc is treated as YAML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	}
	return FormatYAML
}

// Decode parses rule file bytes in the given format.
func Decode(data []byte, format Format) ([]rule.Rule, error) {
	if format == FormatJSON {
		stripped := jsonc.ToJSON(data)
		if len(strings.TrimSpace(string(stripped))) == 0 {
			return nil, nil
		}
		return rule.DecodeJSON(stripped)
	}
	return rule.DecodeYAML(data)
}

// Digest returns the hex BLAKE3 hash of rule file bytes.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Read reads and decodes the rule file at path. A missing file yields
// an empty set and no error; every other failure is returned.
func Read(path string) (rule.Set, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return rule.Set{}, nil
	}
	if err != nil {
		return rule.Set{}, fmt.Errorf("reading rule file: %w", err)
	}
	rules, err := Decode(data, FormatFor(path))
	if err != nil {
		return rule.Set{}, fmt.Errorf("%s: %w", path, err)
	}
	return rule.Set{Rules: rules, Digest: Digest(data)}, nil
}

// Load is the tolerant form of Read used by the engine: any failure
// is logged and yields an empty set.
func Load(path string, logger *slog.Logger) rule.Set {
	set, err := Read(path)
	if err != nil {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		logger.Warn("rule file unreadable, continuing with no rules", "path", path, "error", err)
		return rule.Set{}
	}
	return set
}

// Source supplies the rules in one file to the workflow engine,
// re-reading it on every call.
type Source struct {
	path   string
	logger *slog.Logger
}

// NewSource returns a Source over path. A nil logger discards.
func NewSource(path string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{path: path, logger: logger}
}

// Path returns the rule file path.
func (s *Source) Path() string { return s.path }

// LoadRules reads the current rule file.
func (s *Source) LoadRules(context.Context) rule.Set {
	return Load(s.path, s.logger)
}
