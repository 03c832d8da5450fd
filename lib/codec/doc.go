// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides liteflow's standard CBOR configuration.
//
// liteflow uses JSON for everything a person reads (CLI --json output,
// JSONC rule files) and CBOR for the binary snapshot format written by
// lib/snapshot. Every CBOR producer goes through this package so that
// the same data always yields identical bytes:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// or, for streams:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// Types shared with the CLI's JSON output carry `json` tags only;
// fxamacker/cbor falls back to them when `cbor` tags are absent.
package codec
