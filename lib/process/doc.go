// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the inspector
// binaries. [Fatal] reports an error from run() to stderr when the
// structured logger may not exist yet, and exits.
package process
