// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
)

// Release builds of the liteflow binary stamp these with -ldflags:
//
//	go build -ldflags "-X github.com/bureau-foundation/liteflow/lib/version.Version=0.2.0 \
//	    -X github.com/bureau-foundation/liteflow/lib/version.GitCommit=$(git rev-parse --short HEAD)" \
//	    ./cmd/liteflow
var (
	GitCommit = "unknown"

	// GitDirty is "true" when the tree had local edits.
	GitDirty = "false"

	// BuildTime is an RFC 3339 UTC timestamp.
	BuildTime = "unknown"

	Version = "0.1.0-dev"
)

// Info is the one-line form printed by "liteflow version".
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Full adds the toolchain and platform lines printed by
// "liteflow version --full".
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
