// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"
	"time"

	"github.com/bureau-foundation/inspector/lib/config"
	"github.com/bureau-foundation/inspector/lib/envelope"
	"github.com/bureau-foundation/inspector/lib/process"
)

func TestParseFlagsBuildsFilter(t *testing.T) {
	flags, err := parseFlags([]string{
		"--type", "network", "--search", "posts", "--tag", "env=prod", "--tag", "app=demo", "--since", "5m",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	filter, err := flags.filter(epoch)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if filter.Type != envelope.TypeNetwork || filter.Search != "posts" {
		t.Errorf("filter = %+v", filter)
	}
	if filter.Tags["env"] != "prod" || filter.Tags["app"] != "demo" {
		t.Errorf("Tags = %v", filter.Tags)
	}
	if !filter.Since.Equal(epoch.Add(-5 * time.Minute)) {
		t.Errorf("Since = %v", filter.Since)
	}
}

func TestParseFlagsUsageErrors(t *testing.T) {
	tests := map[string][]string{
		"unknown flag":     {"--bogus"},
		"positional":       {"extra"},
		"detail with json": {"--detail", "--json"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseFlags(args)
			if process.ExitCode(err) != 2 {
				t.Errorf("parseFlags(%v) = %v, want a usage error", args, err)
			}
		})
	}
}

func TestFilterRejectsUnknownType(t *testing.T) {
	flags, err := parseFlags([]string{"--type", "bogus"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if _, err := flags.filter(epoch); process.ExitCode(err) != 2 {
		t.Errorf("filter = %v, want a usage error", err)
	}
}

func TestApplyHostOverridesConfig(t *testing.T) {
	flags, err := parseFlags([]string{"--network", "tcp", "--listen", "127.0.0.1:9099"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	host := config.Default().Host
	flags.applyHost(&host)
	if host.Network != "tcp" || host.Address != "127.0.0.1:9099" {
		t.Errorf("host = %+v", host)
	}

	untouched := config.Default().Host
	empty, _ := parseFlags(nil)
	empty.applyHost(&untouched)
	if untouched != config.Default().Host {
		t.Errorf("host changed without flags: %+v", untouched)
	}
}

func TestParseFlagsHelp(t *testing.T) {
	flags, err := parseFlags([]string{"-h"})
	if err != nil || !flags.help {
		t.Errorf("parseFlags(-h) = %+v, %v", flags, err)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv(config.EnvVar, "")
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Host.Network != "unix" {
		t.Errorf("default network = %q", cfg.Host.Network)
	}

	t.Setenv(config.EnvVar, "/nonexistent/inspector.yaml")
	if _, err := loadConfig(""); err == nil {
		t.Error("loadConfig with a missing file succeeded")
	}
}
