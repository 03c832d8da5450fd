// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1}, // substitution
		{"abc", "ab", 1},  // deletion
		{"ab", "abc", 1},  // insertion
		{"abc", "bac", 2}, // transposition counts as two edits
		{"kitten", "sitting", 3},
		{"rules", "rulse", 2},
		{"snapshot", "snapshto", 2},
		{"process", "proces", 1},
	}

	for _, test := range tests {
		t.Run(test.a+"/"+test.b, func(t *testing.T) {
			if got := levenshtein(test.a, test.b); got != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
			}
			if reverse := levenshtein(test.b, test.a); reverse != test.want {
				t.Errorf("levenshtein(%q, %q) = %d, want %d (symmetry)", test.b, test.a, reverse, test.want)
			}
		})
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "task"},
		{Name: "rules"},
		{Name: "audit"},
		{Name: "group"},
		{Name: "snapshot"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"tsak", "task"},
		{"rule", "rules"},
		{"adit", "audit"},
		{"gruop", "group"},
		{"snapshto", "snapshot"},
		{"completely-different", ""},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			if got := suggestCommand(test.input, commands); got != test.want {
				t.Errorf("suggestCommand(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}

func TestSuggestFlag(t *testing.T) {
	makeFlagSet := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flagSet.String("status", "", "")
		flagSet.String("priority", "", "")
		flagSet.BoolP("json", "j", false, "")
		return flagSet
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"typo", []string{"--stauts", "x"}, "--status"},
		{"typo with value", []string{"--priorty=Haute"}, "--priority"},
		{"known flags skipped", []string{"--status", "x", "--jsno"}, "--json"},
		{"unknown shorthand", []string{"-k"}, "-j"},
		{"known shorthand", []string{"-j"}, ""},
		{"too distant", []string{"--zzzzzzzz"}, ""},
		{"after terminator", []string{"--", "--stauts"}, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := suggestFlag(test.args, makeFlagSet()); got != test.want {
				t.Errorf("suggestFlag(%v) = %q, want %q", test.args, got, test.want)
			}
		})
	}
}
