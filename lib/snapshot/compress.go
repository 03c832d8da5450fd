// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the payload compression. Values are stored
// in the header byte and must not change.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// ParseCompression parses "none", "lz4", or "zstd".
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	}
	return 0, fmt.Errorf("unknown snapshot compression %q (valid: none, lz4, zstd)", name)
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use through
// EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		panic("snapshot: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("snapshot: zstd decoder initialization failed: " + err.Error())
	}
}

// compress returns the payload in the requested encoding. LZ4 falls
// back to none when the block does not shrink, so the tag actually
// used is returned.
func compress(payload []byte, compression Compression) ([]byte, Compression, error) {
	switch compression {
	case CompressionNone:
		return payload, CompressionNone, nil
	case CompressionZstd:
		return zstdEncoder.EncodeAll(payload, nil), CompressionZstd, nil
	case CompressionLZ4:
		destination := make([]byte, lz4.CompressBlockBound(len(payload)))
		written, err := lz4.CompressBlock(payload, destination, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compress: %w", err)
		}
		if written == 0 || written >= len(payload) {
			return payload, CompressionNone, nil
		}
		return destination[:written], CompressionLZ4, nil
	}
	return nil, 0, fmt.Errorf("unsupported snapshot compression %s", compression)
}

func decompress(data []byte, compression Compression, size int) ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	switch compression {
	case CompressionNone:
		payload = data
	case CompressionZstd:
		payload, err = zstdDecoder.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
	case CompressionLZ4:
		payload = make([]byte, size)
		read, err := lz4.UncompressBlock(data, payload)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		payload = payload[:read]
	default:
		return nil, fmt.Errorf("unsupported snapshot compression %s", compression)
	}
	if len(payload) != size {
		return nil, fmt.Errorf("%s payload is %d bytes, header says %d", compression, len(payload), size)
	}
	return payload, nil
}
