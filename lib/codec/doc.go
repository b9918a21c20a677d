// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the single CBOR configuration used by the
// inspector: envelopes crossing the host socket, handshake frames, and
// the canonical form hashed for state checksums.
//
// Types shared with JSON output (envelopes, payload variants) carry
// `json` struct tags only; fxamacker/cbor reads them as a fallback, so
// one tag set names the fields in both encodings. Types that exist only
// on the socket carry `cbor` tags.
package codec
