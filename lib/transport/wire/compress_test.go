// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	text := bytes.Repeat([]byte(`{"type":"network","url":"https://api.example.com/posts/1"}`), 64)

	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			compressed, err := Compress(text, tag)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if CompressionTag(compressed[0]) != tag {
				t.Fatalf("stored tag = %s, want %s", CompressionTag(compressed[0]), tag)
			}
			if tag != CompressionNone && len(compressed) >= len(text) {
				t.Errorf("%s did not shrink repetitive text: %d >= %d", tag, len(compressed), len(text))
			}
			decompressed, err := Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(decompressed, text) {
				t.Fatal("round trip changed the data")
			}
		})
	}
}

func TestCompressFallsBackOnIncompressibleInput(t *testing.T) {
	random := make([]byte, 4096)
	rand.Read(random)

	for _, tag := range []CompressionTag{CompressionLZ4, CompressionZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			compressed, err := Compress(random, tag)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if CompressionTag(compressed[0]) != CompressionNone {
				t.Fatalf("stored tag = %s, want none", CompressionTag(compressed[0]))
			}
			decompressed, err := Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(decompressed, random) {
				t.Fatal("round trip changed the data")
			}
		})
	}
}

func TestDecompressRejectsMalformedPayloads(t *testing.T) {
	good, _ := Compress([]byte("hello world"), CompressionNone)

	lengthMismatch := append([]byte(nil), good...)
	lengthMismatch[4]++

	unknownTag := append([]byte(nil), good...)
	unknownTag[0] = 9

	oversize := []byte{0, 0xff, 0xff, 0xff, 0xff}

	tests := []struct {
		name    string
		payload []byte
	}{
		{"short", []byte{0, 0}},
		{"length mismatch", lengthMismatch},
		{"unknown tag", unknownTag},
		{"oversize", oversize},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Decompress(test.payload); err == nil {
				t.Fatal("Decompress accepted a malformed payload")
			}
		})
	}
	if _, err := Decompress(oversize); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("oversize error = %v, want ErrPayloadTooLarge", err)
	}
}

func TestParseCompressionTag(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		tag, err := ParseCompressionTag(name)
		if err != nil || tag.String() != name {
			t.Errorf("ParseCompressionTag(%q) = %s, %v", name, tag, err)
		}
	}
	if tag, err := ParseCompressionTag(""); err != nil || tag != CompressionNone {
		t.Errorf("empty name = %s, %v", tag, err)
	}
	if _, err := ParseCompressionTag("gzip"); err == nil {
		t.Error("gzip accepted")
	}
}
