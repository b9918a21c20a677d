// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package envelope defines the record that crosses the transport
// boundary: an [Envelope] carrying one of six payload variants, keyed
// by [Type].
//
// The set of types is closed. Consumers switch on Type and assert Data
// to the matching payload struct on the sending side; after a CBOR
// round trip through the host socket Data arrives as map[string]any,
// and [Decode] rebuilds the typed payload.
package envelope
