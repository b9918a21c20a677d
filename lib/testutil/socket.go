// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SocketPath returns a path for a Unix socket inside a fresh directory
// under /tmp. t.TempDir paths can exceed the 108-byte sun_path limit.
// The directory is removed when the test finishes.
func SocketPath(t testing.TB, name string) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "inspector-test-")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(directory) })
	return filepath.Join(directory, name)
}
