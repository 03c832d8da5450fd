// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/liteflow/cmd/liteflow/cli"
	"github.com/bureau-foundation/liteflow/lib/snapshot"
)

func snapshotCommand(env environment) *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Summary: "Back up and restore the task database",
		Description: `Export every task, audit entry, and support group to a single
compressed snapshot file, or replace the database contents with one.`,
		Subcommands: []*cli.Command{
			snapshotExportCommand(env),
			snapshotImportCommand(env),
		},
	}
}

type snapshotExportParams struct {
	globalParams
	cli.JSONOutput
	Compression string `json:"compression" flag:"compression,c" desc:"none, lz4, or zstd (default snapshot.compression from config)"`
}

type exportSummary struct {
	Path        string `json:"path"`
	Compression string `json:"compression"`
	Tasks       int    `json:"tasks"`
	Audit       int    `json:"audit"`
	Groups      int    `json:"groups"`
}

func snapshotExportCommand(env environment) *cli.Command {
	var params snapshotExportParams

	return &cli.Command{
		Name:    "export",
		Summary: "Write the database to a snapshot file",
		Description: `Write the database to a snapshot file. Without a file argument the
snapshot goes to the configured snapshot directory, named after the
current time.`,
		Usage: "liteflow snapshot export [file] [flags]",
		Examples: []cli.Example{
			{
				Description: "Export with lz4 for speed",
				Command:     "liteflow snapshot export backup.lfsnap --compression lz4",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("export", &params) },
		Run: func(args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one file, got %d arguments", len(args))
			}
			return params.withApp(env, "snapshot/export", func(ctx context.Context, a *app) error {
				name := params.Compression
				if name == "" {
					name = a.config.Snapshot.Compression
				}
				compression, err := snapshot.ParseCompression(name)
				if err != nil {
					return err
				}

				path := ""
				if len(args) == 1 {
					path = args[0]
				} else {
					if err := os.MkdirAll(a.config.Paths.Snapshots, 0755); err != nil {
						return err
					}
					path = filepath.Join(a.config.Paths.Snapshots,
						"liteflow-"+a.clock.Now().UTC().Format("20060102T150405Z")+".lfsnap")
				}

				dataset, err := a.store.Dump(ctx)
				if err != nil {
					return err
				}
				used, err := writeSnapshotFile(path, snapshot.Snapshot{
					CreatedAt: a.clock.Now(),
					Dataset:   dataset,
				}, compression)
				if err != nil {
					return err
				}

				summary := exportSummary{
					Path:        path,
					Compression: used.String(),
					Tasks:       len(dataset.Tasks),
					Audit:       len(dataset.Audit),
					Groups:      len(dataset.Groups),
				}
				a.logger.Info("snapshot exported", "path", path, "compression", summary.Compression, "tasks", summary.Tasks)
				if done, err := params.EmitJSON(env.stdout, summary); done {
					return err
				}
				fmt.Fprintf(env.stdout, "wrote %s (%s): %d tasks, %d audit entries, %d support groups\n",
					path, summary.Compression, summary.Tasks, summary.Audit, summary.Groups)
				return nil
			})
		},
	}
}

// writeSnapshotFile writes to a temporary file in the destination
// directory and renames it into place, so a failed export never leaves
// a truncated snapshot under the final name.
func writeSnapshotFile(path string, snap snapshot.Snapshot, compression snapshot.Compression) (used snapshot.Compression, err error) {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("creating snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(file.Name())
		}
	}()

	used, err = snapshot.Write(file, snap, compression)
	if err != nil {
		return 0, err
	}
	if err := file.Sync(); err != nil {
		return 0, fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(file.Name(), path); err != nil {
		return 0, fmt.Errorf("renaming snapshot into place: %w", err)
	}
	return used, nil
}

type snapshotImportParams struct {
	globalParams
	cli.JSONOutput
}

func snapshotImportCommand(env environment) *cli.Command {
	var params snapshotImportParams

	return &cli.Command{
		Name:    "import",
		Summary: "Replace the database with a snapshot",
		Description: `Replace every task, audit entry, and support group in the database
with the contents of a snapshot file. The replacement is atomic: a
snapshot that fails validation leaves the database unchanged.`,
		Usage: "liteflow snapshot import <file> [flags]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("import", &params) },
		Run: func(args []string) error {
			path, err := singleArg(args, "snapshot file")
			if err != nil {
				return err
			}
			snap, err := readSnapshotFile(path)
			if err != nil {
				return err
			}
			return params.withApp(env, "snapshot/import", func(ctx context.Context, a *app) error {
				if err := a.store.Restore(ctx, snap.Dataset); err != nil {
					return fmt.Errorf("restoring %s: %w", path, err)
				}
				summary := exportSummary{
					Path:   path,
					Tasks:  len(snap.Dataset.Tasks),
					Audit:  len(snap.Dataset.Audit),
					Groups: len(snap.Dataset.Groups),
				}
				a.logger.Info("snapshot imported", "path", path, "created_at", snap.CreatedAt, "tasks", summary.Tasks)
				if done, err := params.EmitJSON(env.stdout, summary); done {
					return err
				}
				fmt.Fprintf(env.stdout, "restored %s (taken %s): %d tasks, %d audit entries, %d support groups\n",
					path, snap.CreatedAt.Format(timeLayout), summary.Tasks, summary.Audit, summary.Groups)
				return nil
			})
		},
	}
}

func readSnapshotFile(path string) (snapshot.Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	defer file.Close()

	snap, err := snapshot.Read(file)
	if errors.Is(err, snapshot.ErrNotSnapshot) {
		return snapshot.Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return snap, nil
}
