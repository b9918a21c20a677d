// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the algorithm of a compressed payload.
// The values are protocol constants.
type CompressionTag uint8

const (
	CompressionNone CompressionTag = 0
	CompressionLZ4  CompressionTag = 1
	CompressionZstd CompressionTag = 2
)

func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// ParseCompressionTag parses a tag name. The empty string is none.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression tag: %q", name)
	}
}

// compressedHeaderLength is the tag byte plus the uncompressed length.
const compressedHeaderLength = 5

var errIncompressible = errors.New("data is incompressible")

// Compress wraps data as [tag][uncompressed length][body]. When the
// requested algorithm does not shrink data the body is stored with
// CompressionNone.
func Compress(data []byte, tag CompressionTag) ([]byte, error) {
	var body []byte
	var err error
	switch tag {
	case CompressionNone:
		body = data
	case CompressionLZ4:
		body, err = compressLZ4(data)
	case CompressionZstd:
		body, err = compressZstd(data)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
	if errors.Is(err, errIncompressible) {
		tag, body, err = CompressionNone, data, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]byte, compressedHeaderLength+len(body))
	out[0] = byte(tag)
	binary.BigEndian.PutUint32(out[1:5], uint32(len(data)))
	copy(out[compressedHeaderLength:], body)
	return out, nil
}

// Decompress reverses Compress, verifying the declared length.
func Decompress(payload []byte) ([]byte, error) {
	if len(payload) < compressedHeaderLength {
		return nil, fmt.Errorf("compressed payload: %d bytes is shorter than its header", len(payload))
	}
	tag := CompressionTag(payload[0])
	size := binary.BigEndian.Uint32(payload[1:5])
	if size > MaxPayloadLength {
		return nil, fmt.Errorf("%w: declares %d uncompressed bytes", ErrPayloadTooLarge, size)
	}
	body := payload[compressedHeaderLength:]
	uncompressedSize := int(size)

	switch tag {
	case CompressionNone:
		if len(body) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed payload: size %d does not match expected %d",
				len(body), uncompressedSize)
		}
		return body, nil
	case CompressionLZ4:
		return decompressLZ4(body, uncompressedSize)
	case CompressionZstd:
		return decompressZstd(body, uncompressedSize)
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

// zstd.Encoder and zstd.Decoder are safe for concurrent EncodeAll and
// DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("wire: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxPayloadLength))
	if err != nil {
		panic("wire: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
	}
	return result, nil
}
