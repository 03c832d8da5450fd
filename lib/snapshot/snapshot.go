// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/liteflow/lib/codec"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
)

const (
	magic         = "LFSNAP"
	formatVersion = 1
	headerSize    = 48

	// maxPayloadSize bounds the allocation made from an untrusted
	// header.
	maxPayloadSize = 1 << 30
)

// ErrNotSnapshot is returned by Read when the input does not start
// with the snapshot magic.
var ErrNotSnapshot = errors.New("not a liteflow snapshot")

// ErrCorrupt is returned by Read when the payload hash does not match
// the header.
var ErrCorrupt = errors.New("snapshot payload is corrupt")

// Snapshot is the payload of a snapshot file.
type Snapshot struct {
	CreatedAt time.Time    `cbor:"created_at"`
	Dataset   task.Dataset `cbor:"dataset"`
}

// Write encodes snap to w with the requested compression and returns
// the compression actually used (LZ4 falls back to none for payloads
// it cannot shrink).
func Write(w io.Writer, snap Snapshot, compression Compression) (Compression, error) {
	payload, err := codec.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("encoding snapshot: %w", err)
	}
	if len(payload) > maxPayloadSize {
		return 0, fmt.Errorf("snapshot payload of %d bytes exceeds the %d byte limit", len(payload), maxPayloadSize)
	}
	body, used, err := compress(payload, compression)
	if err != nil {
		return 0, err
	}

	header := make([]byte, headerSize)
	copy(header, magic)
	header[6] = formatVersion
	header[7] = byte(used)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	sum := blake3.Sum256(payload)
	copy(header[16:], sum[:])

	if _, err := w.Write(header); err != nil {
		return 0, fmt.Errorf("writing snapshot header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return 0, fmt.Errorf("writing snapshot payload: %w", err)
	}
	return used, nil
}

// Read decodes a snapshot written by Write.
func Read(r io.Reader) (Snapshot, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Snapshot{}, ErrNotSnapshot
		}
		return Snapshot{}, fmt.Errorf("reading snapshot header: %w", err)
	}
	if !bytes.Equal(header[:len(magic)], []byte(magic)) {
		return Snapshot{}, ErrNotSnapshot
	}
	if header[6] != formatVersion {
		return Snapshot{}, fmt.Errorf("snapshot format version %d not supported (want %d)", header[6], formatVersion)
	}
	compression := Compression(header[7])
	size := binary.LittleEndian.Uint32(header[8:12])
	if size > maxPayloadSize || uint64(size) > math.MaxInt {
		return Snapshot{}, fmt.Errorf("snapshot payload size %d exceeds the limit", size)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot payload: %w", err)
	}
	payload, err := decompress(body, compression, int(size))
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if sum := blake3.Sum256(payload); !bytes.Equal(sum[:], header[16:]) {
		return Snapshot{}, ErrCorrupt
	}

	var snap Snapshot
	if err := codec.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}
