// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package evhttp provides an event-driven HTTP request object in the
// style of XMLHttpRequest: configure with [Request.Open] and
// [Request.SetRequestHeader], start with [Request.Send], and observe
// completion through listeners for [EventLoad], [EventError],
// [EventTimeout], and [EventAbort].
//
// Open and Send dispatch through process-wide [Hooks]. Instrumentation
// replaces the hooks with wrappers that observe every request made
// through this package; see lib/netcapture. Application code never
// touches the hooks.
//
// Requests run on a private copy of the default transport made at
// package initialization, so wrapping http.DefaultTransport later does
// not observe evhttp traffic a second time.
package evhttp
