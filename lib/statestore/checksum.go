// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statestore

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/inspector/lib/codec"
	"github.com/bureau-foundation/inspector/lib/serialize"
)

// Checksum returns the hex BLAKE3-256 digest of value's canonical
// encoding: the sanitized tree in core deterministic CBOR, so map
// order never affects the result. Values that cannot be encoded hash
// as their encoding error text.
func Checksum(value any) string {
	tree := serialize.Sanitize(value, serialize.Options{})
	data, err := codec.Marshal(tree)
	if err != nil {
		data = []byte(err.Error())
	}
	digest := blake3.Sum256(data)
	return hex.EncodeToString(digest[:])
}
