// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"
)

// IDPrefix starts every task ID.
const IDPrefix = "tsk"

// idDomainKey separates task ID hashes from every other BLAKE3 use in
// liteflow. The bytes are the ASCII domain name, zero padded.
var idDomainKey = [32]byte{
	'l', 'i', 't', 'e', 'f', 'l', 'o', 'w', '.', 't', 'a', 's', 'k', '.',
	'i', 'd', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// GenerateID derives a task ID from the parent ID, creation time, and
// title, truncated to the shortest hex prefix (at least four digits)
// for which taken returns false. Two tasks created with the same
// inputs get IDs of different lengths.
func GenerateID(parent string, created time.Time, title string, taken func(string) bool) string {
	hasher, err := blake3.NewKeyed(idDomainKey[:])
	if err != nil {
		panic("task: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(parent + "\n" + created.UTC().Format(time.RFC3339Nano) + "\n" + title))
	hexHash := hex.EncodeToString(hasher.Sum(nil))

	for length := 4; length <= len(hexHash); length++ {
		candidate := IDPrefix + "-" + hexHash[:length]
		if taken != nil && taken(candidate) {
			continue
		}
		return candidate
	}
	// 64 hex digits: exhausting every prefix needs 2^128 collisions.
	return IDPrefix + "-" + hexHash
}
