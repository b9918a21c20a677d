// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netcapture

import (
	"io"
	"net/http"
	"sync"
	"unicode/utf8"

	"github.com/bureau-foundation/inspector/lib/serialize"
)

// WrapTransport returns a RoundTripper that forwards to base and
// reports each exchange to the fetch subscribers. A nil base uses
// http.DefaultTransport as it is at call time.
func (r *Registry) WrapTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &captureTransport{base: base, registry: r}
}

type captureTransport struct {
	base     http.RoundTripper
	registry *Registry
}

func (t *captureTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	if !t.registry.hasSubscribers(PrimitiveFetch) {
		return t.base.RoundTrip(request)
	}

	start := t.registry.clock.Now()
	method := request.Method
	if method == "" {
		method = http.MethodGet
	}
	event := Event{
		Primitive:      PrimitiveFetch,
		Method:         method,
		URL:            request.URL.String(),
		RequestHeaders: serialize.FlattenHeader(request.Header),
	}
	event.RequestBody, event.RequestSize = summarizeRequestBody(request)

	response, err := t.base.RoundTrip(request)
	event.Duration = t.registry.clock.Now().Sub(start)
	if err != nil {
		event.Error = err.Error()
		t.registry.notify(event)
		return nil, err
	}

	event.Status = response.StatusCode
	event.ResponseHeaders = serialize.FlattenHeader(response.Header)
	text := isTextContent(response.Header.Get("Content-Type"))
	if !text {
		event.ResponseBody = BodyBinaryResponse
	}

	if response.Body == nil || response.Body == http.NoBody {
		t.registry.notify(event)
		return response, nil
	}
	response.Body = &captureBody{
		body:     response.Body,
		event:    event,
		text:     text,
		registry: t.registry,
	}
	return response, nil
}

// summarizeRequestBody returns the body text, or a placeholder when
// the body is multipart, not replayable, or not UTF-8. The caller's
// body is never consumed: text is read from a GetBody copy.
func summarizeRequestBody(request *http.Request) (string, int64) {
	if request.Body == nil || request.Body == http.NoBody {
		return "", 0
	}
	size := request.ContentLength
	if size < 0 {
		size = 0
	}
	if isMultipartForm(request.Header.Get("Content-Type")) {
		return BodyFormData, size
	}
	if request.GetBody == nil {
		return BodyBinary, size
	}
	replay, err := request.GetBody()
	if err != nil {
		return BodyBinary, size
	}
	defer replay.Close()
	data, err := io.ReadAll(io.LimitReader(replay, MaxCapturedBody))
	if err != nil || !utf8.Valid(data) {
		return BodyBinary, size
	}
	return string(data), size
}

// captureBody tees the response body the caller reads. The event is
// delivered once: at EOF, at a read error, or at Close, whichever
// comes first.
type captureBody struct {
	body     io.ReadCloser
	event    Event
	text     bool
	registry *Registry

	mu       sync.Mutex
	captured []byte
	size     int64
	readErr  error
	once     sync.Once
}

func (b *captureBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)

	b.mu.Lock()
	b.size += int64(n)
	if b.text && len(b.captured) < MaxCapturedBody {
		b.captured = append(b.captured, truncateCapture(p[:n])...)
		b.captured = truncateCapture(b.captured)
	}
	if err != nil && err != io.EOF {
		b.readErr = err
	}
	b.mu.Unlock()

	if err != nil {
		b.finish()
	}
	return n, err
}

func (b *captureBody) Close() error {
	err := b.body.Close()
	b.finish()
	return err
}

func (b *captureBody) finish() {
	b.once.Do(func() {
		b.mu.Lock()
		event := b.event
		event.ResponseSize = b.size
		if b.text {
			event.ResponseBody = string(b.captured)
		}
		if b.readErr != nil && b.size == 0 {
			event.ResponseBody = "[Failed to read response]"
		}
		b.mu.Unlock()
		b.registry.notify(event)
	})
}
