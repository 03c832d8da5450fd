// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for liteflow.
//
// Configuration comes from a single file named by either the
// LITEFLOW_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). [Resolve] picks between the two for the CLI and
// falls back to [Default] when neither is given. There is no search
// path and no per-key environment override.
//
// The file may carry environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production defaults to JSON logs.
//
// Path fields support ${HOME}, ${LITEFLOW_ROOT}, and ${VAR:-default}
// expansion after loading. Default paths are written relative to
// ${LITEFLOW_ROOT}, so setting paths.root alone relocates the database,
// rule file, and snapshot directory together.
//
// This package depends on no other liteflow packages.
package config
