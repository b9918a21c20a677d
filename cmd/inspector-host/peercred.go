// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

// credentials identify the process on the other end of a Unix socket.
type credentials struct {
	PID int32
	UID uint32
	GID uint32
}
