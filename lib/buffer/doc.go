// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package buffer batches envelopes between producers and the
// transport. A [Buffer] flushes when it reaches its item limit or when
// its interval timer fires, whichever comes first.
//
// A flush swaps the pending slice for an empty one under the lock and
// hands the swapped slice to the callback after releasing it. Every
// envelope added before the swap is in that batch; every envelope
// added after it is in a later one. Nothing is delivered twice.
package buffer
