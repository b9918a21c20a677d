// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by the inspector's tests.
//
// [RequireReceive], [RequireClosed], and [RequireNoReceive] wrap the
// select-with-timeout pattern so tests waiting on goroutines never
// hang. They are the only place tests read the wall clock; everything
// else runs on clock.Fake.
//
// [SocketPath] allocates short Unix socket paths. [UniqueID] produces
// distinguishable identifiers for tests that share process-wide state.
package testutil
