// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads inspector configuration.
//
// Configuration comes from a single file named by the INSPECTOR_CONFIG
// environment variable (via [Load]) or a --config flag (via
// [LoadFile]). YAML (.yaml, .yml) and JSON with comments (.json,
// .jsonc) are accepted. The file is overlaid on [Default], so it only
// needs the keys it changes.
//
// The file may contain development and production sections that
// override base values when [Config].Environment matches. Production
// defaults are quieter: the inspector is disabled unless a section
// enables it.
//
// ${VAR} and ${VAR:-default} patterns are expanded in host.address
// after loading.
//
// When the file names no environment, [DefaultEnvironment] applies:
// development normally, production in builds tagged release.
//
// Loading never rejects a well-formed file for bad values.
// [Config.Normalize] replaces each invalid value with its default and
// returns one message per replacement for the caller to log.
package config
