// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspector

import (
	"github.com/bureau-foundation/inspector/lib/envelope"
	"github.com/bureau-foundation/inspector/lib/netcapture"
	"github.com/bureau-foundation/inspector/lib/serialize"
)

// NetworkOptions configures PatchNetwork. Nil fields take the
// inspector's configuration.
type NetworkOptions struct {
	// Enabled defaults to true.
	Enabled *bool

	// RedactHeaders names headers whose values are replaced.
	RedactHeaders []string

	// RedactBody replaces captured bodies with a marker.
	RedactBody *bool
}

// NetworkBodyLimit is the character limit for captured bodies in
// network records.
const NetworkBodyLimit = serialize.DefaultTruncateLength

// PatchNetwork records every request made through
// http.DefaultTransport and evhttp as a network envelope. The returned
// function stops recording; the interception itself stays installed.
func (i *Inspector) PatchNetwork(options NetworkOptions) func() {
	if options.Enabled != nil && !*options.Enabled {
		return func() {}
	}
	if !i.enabled {
		return func() {}
	}

	redact := options.RedactHeaders
	if redact == nil {
		redact = i.config.RedactHeaders
	}
	redactBody := i.config.RedactBody
	if options.RedactBody != nil {
		redactBody = *options.RedactBody
	}

	record := func(event netcapture.Event) {
		if i.isDestroyed() {
			return
		}
		i.emit(envelope.TypeNetwork, networkRecord(event, redact, redactBody), nil)
	}
	disposeFetch := i.registry.RegisterFetch(record)
	disposeEvent := i.registry.RegisterEventRequest(record)

	return i.bind(func() {
		disposeFetch()
		disposeEvent()
	})
}

func networkRecord(event netcapture.Event, redact []string, redactBody bool) envelope.NetworkRecord {
	return envelope.NetworkRecord{
		Method:          event.Method,
		URL:             event.URL,
		Status:          event.Status,
		Duration:        event.Duration.Milliseconds(),
		RequestHeaders:  serialize.RedactHeaders(event.RequestHeaders, redact),
		ResponseHeaders: serialize.RedactHeaders(event.ResponseHeaders, redact),
		RequestBody:     captureBody(event.RequestBody, redactBody),
		ResponseBody:    captureBody(event.ResponseBody, redactBody),
		RequestSize:     event.RequestSize,
		ResponseSize:    event.ResponseSize,
		Error:           event.Error,
	}
}

func captureBody(body string, redact bool) string {
	if body == "" {
		return ""
	}
	if redact {
		return serialize.MarkerRedacted
	}
	return serialize.TruncateString(body, NetworkBodyLimit)
}
