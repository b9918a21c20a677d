// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides connection helpers shared by the socket
// host client and the host receiver.
//
// [IsExpectedCloseError] separates normal teardown (EOF, closed
// connection, broken pipe, reset) from failures worth logging.
// [Backoff] computes reconnect delays.
package netutil
