// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlags_BasicTypes(t *testing.T) {
	type params struct {
		Title    string        `flag:"title" desc:"task title"`
		Admin    bool          `flag:"admin,a" desc:"administrative update"`
		Limit    int           `flag:"limit" desc:"maximum entries"`
		Offset   int64         `flag:"offset" desc:"byte offset"`
		Debounce time.Duration `flag:"debounce" desc:"watch debounce"`
		Tags     []string      `flag:"tags" desc:"tag list"`
		Untagged string        // no flag tag, skipped
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	err := flagSet.Parse([]string{
		"--title", "Panne VPN",
		"-a",
		"--limit", "42",
		"--offset", "1099511627776",
		"--debounce", "500ms",
		"--tags", "vpn,urgent",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Title != "Panne VPN" {
		t.Errorf("Title = %q, want %q", p.Title, "Panne VPN")
	}
	if !p.Admin {
		t.Error("Admin = false, want true")
	}
	if p.Limit != 42 {
		t.Errorf("Limit = %d, want 42", p.Limit)
	}
	if p.Offset != 1099511627776 {
		t.Errorf("Offset = %d, want 1099511627776", p.Offset)
	}
	if p.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want 500ms", p.Debounce)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "vpn" || p.Tags[1] != "urgent" {
		t.Errorf("Tags = %v, want [vpn urgent]", p.Tags)
	}
	if p.Untagged != "" {
		t.Errorf("Untagged = %q, want empty", p.Untagged)
	}
}

func TestBindFlags_Defaults(t *testing.T) {
	type params struct {
		Compression string        `flag:"compression" default:"zstd"`
		Limit       int           `flag:"limit" default:"50"`
		Offset      int64         `flag:"offset" default:"100"`
		Debounce    time.Duration `flag:"debounce" default:"250ms"`
		Workflow    bool          `flag:"workflow" default:"true"`
		Tags        []string      `flag:"tags" default:"x,y"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Compression != "zstd" {
		t.Errorf("Compression = %q, want zstd", p.Compression)
	}
	if p.Limit != 50 {
		t.Errorf("Limit = %d, want 50", p.Limit)
	}
	if p.Offset != 100 {
		t.Errorf("Offset = %d, want 100", p.Offset)
	}
	if p.Debounce != 250*time.Millisecond {
		t.Errorf("Debounce = %v, want 250ms", p.Debounce)
	}
	if !p.Workflow {
		t.Error("Workflow = false, want true")
	}
	if len(p.Tags) != 2 || p.Tags[0] != "x" || p.Tags[1] != "y" {
		t.Errorf("Tags = %v, want [x y]", p.Tags)
	}
}

func TestBindFlags_EmbeddedStructRecursion(t *testing.T) {
	type shared struct {
		Database string `flag:"db" desc:"database path"`
		Rules    string `flag:"rules" desc:"rule file"`
	}
	type params struct {
		shared
		JSONOutput
		Status string `flag:"status"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--db", ":memory:", "--rules", "r.yaml", "--json", "--status", "Nouveau"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Database != ":memory:" || p.Rules != "r.yaml" {
		t.Errorf("embedded fields = %+v", p.shared)
	}
	if !p.OutputJSON {
		t.Error("OutputJSON = false, want true")
	}
	if p.Status != "Nouveau" {
		t.Errorf("Status = %q, want Nouveau", p.Status)
	}
}

func TestBindFlags_Errors(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)

	if err := BindFlags(struct{}{}, flagSet); err == nil {
		t.Error("BindFlags accepted a non-pointer")
	}
	value := 7
	if err := BindFlags(&value, flagSet); err == nil {
		t.Error("BindFlags accepted a pointer to a non-struct")
	}

	type badDefault struct {
		Limit int `flag:"limit" default:"many"`
	}
	err := BindFlags(&badDefault{}, flagSet)
	if err == nil || !strings.Contains(err.Error(), "--limit") {
		t.Errorf("BindFlags error = %v, want one naming --limit", err)
	}

	type unsupported struct {
		Ratio float32 `flag:"ratio"`
	}
	if err := BindFlags(&unsupported{}, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags accepted an unsupported type")
	}
}

func TestFlagsFromParams_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FlagsFromParams did not panic for invalid params")
		}
	}()
	FlagsFromParams("bad", "not a struct")
}

func TestBindFlags_PositionalArgsRemain(t *testing.T) {
	type params struct {
		Admin bool `flag:"admin"`
	}
	var p params
	flagSet := FlagsFromParams("update", &p)
	if err := flagSet.Parse([]string{"tsk-0001", "--admin", "extra"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	args := flagSet.Args()
	if len(args) != 2 || args[0] != "tsk-0001" || args[1] != "extra" {
		t.Errorf("Args() = %v, want [tsk-0001 extra]", args)
	}
	if !p.Admin {
		t.Error("Admin = false, want true")
	}
}

func TestChanged(t *testing.T) {
	type params struct {
		Tags   string `flag:"tags"`
		Status string `flag:"status"`
	}
	var p params
	flagSet := FlagsFromParams("update", &p)
	if err := flagSet.Parse([]string{"--tags", ""}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !Changed(flagSet, "tags") {
		t.Error("Changed(tags) = false for an explicitly empty value")
	}
	if Changed(flagSet, "status") {
		t.Error("Changed(status) = true for an absent flag")
	}
	if Changed(flagSet, "missing") {
		t.Error("Changed(missing) = true for an undefined flag")
	}
}
