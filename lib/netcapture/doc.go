// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netcapture observes the process's outbound HTTP traffic.
//
// Two shared entry points are instrumented:
//
//   - the fetch primitive, http.DefaultTransport, which serves
//     http.DefaultClient, http.Get, and every client with a nil
//     Transport;
//   - the event-request primitive, the Open and Send hooks of
//     lib/evhttp.
//
// [Default] returns the process-wide [Registry]. The first
// [Registry.RegisterFetch] wraps http.DefaultTransport and the first
// [Registry.RegisterEventRequest] wraps the evhttp hooks. Each wrap
// happens once for the life of the process: disposing the last
// subscriber leaves the wrapper installed, because code elsewhere may
// already hold the wrapped transport. With no subscribers the wrapper
// forwards without recording.
//
// Every completed or failed request produces one [Event] delivered to
// each subscriber of that primitive. A subscriber that panics is
// logged and skipped; the intercepted request never sees it.
//
// Clients with their own transport can be observed with
// [Registry.WrapTransport], which feeds the fetch subscribers.
package netcapture
