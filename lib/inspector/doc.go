// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package inspector is the application-facing surface of the
// capture-and-delivery pipeline.
//
// An [Inspector] turns calls such as [Inspector.Log], [Inspector.Metric],
// and [Inspector.Trace], along with intercepted network exchanges and
// bound application stores, into envelopes. Payloads are sanitized and
// size-bounded, default tags are merged in, and the envelopes are
// batched and handed to a [transport.Transport]. When no inspection
// host is connected they are dropped.
//
// Nothing here reports failure to the caller. A disabled inspector
// accepts every call and does nothing; a destroyed one ignores late
// network completions and store notifications.
//
// The package-level functions ([Log], [Error], [PatchNetwork], ...)
// operate on a process-wide default instance created lazily from
// [config.Default], or explicitly by [Init].
package inspector
