// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sockethost is a [transport.Host] that reaches an inspection
// host over a Unix or TCP socket using the frames in package wire.
//
// Each plugin added to a [Host] gets its own background session loop:
// dial, send Hello, wait for Connect, hand the plugin a connection,
// and read until the host goes away. The loop then reconnects with
// doubling backoff until [Host.Close].
//
// Messages sent on a connection are encoded on the caller's goroutine
// and queued for a single writer goroutine, so frames leave in Send
// order. The queue is bounded; when it is full the oldest frame is
// dropped and counted in [Stats]. An instrumented process therefore
// never blocks on a slow host.
package sockethost
