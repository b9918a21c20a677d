// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport delivers envelopes to an external inspection host.
//
// A [Transport] is either connected, in which case [Transport.Send]
// forwards the envelope, or disconnected, in which case it is dropped.
// [NoopTransport] is permanently disconnected and is what [New]
// returns outside development or when no [Host] is available.
//
// [PluginTransport] registers itself with a [Host] as a [Plugin] and
// becomes connected when the host calls OnConnect. The host may
// connect and disconnect any number of times; the transport holds at
// most one [Connection] at a time. Delivery failures are logged and
// never reach the caller.
//
// Subpackage wire defines the socket frame format; sockethost is a
// Host that speaks it.
package transport
