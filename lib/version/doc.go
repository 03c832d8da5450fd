// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports which liteflow build is running. The
// variables in this package keep their development defaults unless a
// release build overrides them with -ldflags -X; [Info] backs
// "liteflow version" and [Full] backs "liteflow version --full".
package version
