// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !release

package config

import "testing"

func TestUntaggedBuildDefaultsToDevelopment(t *testing.T) {
	if DefaultEnvironment != Development {
		t.Fatalf("DefaultEnvironment = %s, want development", DefaultEnvironment)
	}
	cfg := Default()
	if !cfg.IsEnabled() {
		t.Error("expected the default config to be enabled in an untagged build")
	}

	var unnamed Config
	unnamed.Normalize()
	if unnamed.Environment != Development {
		t.Errorf("Normalize chose %s for a missing environment", unnamed.Environment)
	}
}
