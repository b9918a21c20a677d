// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package serialize reduces arbitrary application values to bounded,
// JSON-safe representations. Nothing in this package panics or returns
// an error to its caller: every failure degrades to an inline marker.
//
// [Sanitize] walks a value with reflection and produces a tree of
// nil, bool, int64, uint64, float64, string, []any, and map[string]any.
// The walk is bounded by depth and tracks the chain of ancestor
// pointers, maps, and slices it is currently inside, so a value that
// contains itself becomes [MarkerCircular] while two siblings sharing
// one pointer are both serialized in full.
//
// [SafeStringify] sanitizes and encodes. Output longer than the size
// limit is replaced wholesale by [MarkerSizeLimit] rather than cut
// mid-structure.
//
// [RedactHeaders] and [TruncateString] are the per-field reductions the
// network capture applies before records leave the process.
package serialize
