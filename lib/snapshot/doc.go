// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot serializes the full contents of a task store for
// backup and restore.
//
// A snapshot file is a fixed 48-byte header followed by the payload:
//
//	offset  size  field
//	0       6     magic "LFSNAP"
//	6       1     format version (1)
//	7       1     compression tag (0 none, 1 lz4, 2 zstd)
//	8       4     uncompressed payload size, little endian
//	12      4     reserved, zero
//	16      32    BLAKE3 hash of the uncompressed payload
//
// The payload is a deterministic CBOR encoding (lib/codec) of a
// [Snapshot]. Encoding the same dataset twice yields identical bytes,
// so snapshot files can be compared with cmp.
package snapshot
