// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package statestore holds named state sections and computes
// structural diffs between successive snapshots.
//
// A [Store] keeps one map per section. [Store.Update] shallow-merges
// a partial map into a section and emits the merged result;
// [Store.Remove] deletes a section or some of its keys. Every mutation
// reaches the emit callback as an [envelope.StateData] after the lock
// is released.
//
// [Diff] compares two sanitized trees and returns the changed paths.
// [Filter] prunes keys before snapshots leave the process, and
// [Checksum] fingerprints a value so the host can detect drift
// without comparing whole sections.
package statestore
