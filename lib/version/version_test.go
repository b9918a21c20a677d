// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestInfoMarksDirtyBuilds(t *testing.T) {
	saved := [...]string{GitCommit, GitDirty, BuildTime, Version}
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime, Version = saved[0], saved[1], saved[2], saved[3]
	})

	GitCommit, GitDirty, BuildTime, Version = "abc1234", "true", "2026-10-01T00:00:00Z", "1.2.0"
	if got, want := Info(), "1.2.0 (abc1234-dirty, 2026-10-01T00:00:00Z)"; got != want {
		t.Errorf("Info = %q, want %q", got, want)
	}

	GitDirty = "false"
	if got := Info(); strings.Contains(got, "dirty") {
		t.Errorf("clean build Info = %q", got)
	}
	if Short() != "1.2.0" {
		t.Errorf("Short = %q", Short())
	}
}

func TestFprintPrefixesBinary(t *testing.T) {
	var out bytes.Buffer
	Fprint(&out, "inspector-host")
	line := out.String()
	if !strings.HasPrefix(line, "inspector-host "+Info()) || !strings.Contains(line, "Go: ") {
		t.Errorf("Fprint = %q", line)
	}
}
