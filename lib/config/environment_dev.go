// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !release

package config

// DefaultEnvironment is the environment a build assumes when the
// configuration does not name one. Builds tagged release use
// [Production].
const DefaultEnvironment = Development
