// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netcapture

import (
	"mime"
	"strings"
	"time"
)

// Primitive identifies an instrumented entry point.
type Primitive int

const (
	// PrimitiveFetch is http.DefaultTransport.
	PrimitiveFetch Primitive = iota + 1
	// PrimitiveEventRequest is the evhttp request object.
	PrimitiveEventRequest
)

func (p Primitive) String() string {
	switch p {
	case PrimitiveFetch:
		return "fetch"
	case PrimitiveEventRequest:
		return "event-request"
	}
	return "unknown"
}

// Body placeholders substituted for content that is not captured as
// text.
const (
	BodyFormData       = "[FormData]"
	BodyArrayBuffer    = "[ArrayBuffer]"
	BodyBinary         = "[Binary Data]"
	BodyBinaryResponse = "[Binary Response]"
)

// Error texts reported for event-request failures.
const (
	ErrorRequestFailed  = "Network request failed"
	ErrorRequestTimeout = "Request timeout"
	ErrorRequestAborted = "Request aborted"
)

// MaxCapturedBody bounds the bytes of any one body kept in an Event.
// Sizes are still counted past it.
const MaxCapturedBody = 64 * 1024

// Event is one completed or failed request. Headers are flattened
// with lower-cased names and are not yet redacted. Exactly one of
// Status and Error is set.
type Event struct {
	Primitive       Primitive
	Method          string
	URL             string
	Status          int
	Duration        time.Duration
	RequestHeaders  map[string]string
	ResponseHeaders map[string]string
	RequestBody     string
	ResponseBody    string
	RequestSize     int64
	ResponseSize    int64
	Error           string
}

// Callback receives events. It runs on the goroutine that completed
// the request: the caller reading the response body for fetch, the
// request's goroutine for evhttp.
type Callback func(Event)

// isTextContent reports whether a response body with this content
// type is captured as text.
func isTextContent(contentType string) bool {
	media, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		media = strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.HasPrefix(media, "text/") ||
		media == "application/json" ||
		strings.HasSuffix(media, "+json")
}

func isMultipartForm(contentType string) bool {
	media, _, err := mime.ParseMediaType(contentType)
	return err == nil && media == "multipart/form-data"
}

// truncateCapture caps captured bytes at MaxCapturedBody.
func truncateCapture(data []byte) []byte {
	if len(data) > MaxCapturedBody {
		return data[:MaxCapturedBody]
	}
	return data
}
