// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netcapture

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/inspector/lib/evhttp"
	"github.com/bureau-foundation/inspector/lib/serialize"
)

// trackedRequest is the per-request state between Open and
// completion. sent is set once a Send has been claimed for the entry;
// body, size, and removers belong to that Send.
type trackedRequest struct {
	method   string
	url      string
	start    time.Time
	sent     bool
	body     string
	size     int64
	removers []func()
	once     sync.Once
}

// wrapHooks returns hooks that record every evhttp request and then
// delegate to original.
func (r *Registry) wrapHooks(original evhttp.Hooks) evhttp.Hooks {
	return evhttp.Hooks{
		Open: func(request *evhttp.Request, method, url string) error {
			if !r.hasSubscribers(PrimitiveEventRequest) {
				return original.Open(request, method, url)
			}
			tracked := &trackedRequest{
				method: strings.ToUpper(method),
				url:    url,
				start:  r.clock.Now(),
			}
			if err := original.Open(request, method, url); err != nil {
				return err
			}
			r.mu.Lock()
			r.active[request] = tracked
			r.mu.Unlock()
			return nil
		},
		Send: func(request *evhttp.Request, body any) error {
			tracked := r.claimSend(request)
			if tracked == nil {
				return original.Send(request, body)
			}

			// Listeners go on before the exchange starts so a fast
			// completion is not missed; they come off at completion.
			tracked.body, tracked.size = summarizeEventBody(body)
			complete := func(errorText string) evhttp.Listener {
				return func(completed *evhttp.Request) {
					tracked.once.Do(func() { r.completeEventRequest(completed, tracked, errorText) })
				}
			}
			tracked.removers = []func(){
				request.AddEventListener(evhttp.EventLoad, complete("")),
				request.AddEventListener(evhttp.EventError, complete(ErrorRequestFailed)),
				request.AddEventListener(evhttp.EventTimeout, complete(ErrorRequestTimeout)),
				request.AddEventListener(evhttp.EventAbort, complete(ErrorRequestAborted)),
			}

			if err := original.Send(request, body); err != nil {
				tracked.removeListeners()
				r.untrackIf(request, tracked)
				return err
			}
			return nil
		},
	}
}

// claimSend returns the tracking entry for request if no Send has been
// claimed for it yet. A Send on a request already in flight gets nil
// and leaves the live entry alone.
func (r *Registry) claimSend(request *evhttp.Request) *trackedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracked := r.active[request]
	if tracked == nil || tracked.sent {
		return nil
	}
	tracked.sent = true
	return tracked
}

func (t *trackedRequest) removeListeners() {
	for _, remove := range t.removers {
		remove()
	}
}

func (r *Registry) completeEventRequest(request *evhttp.Request, tracked *trackedRequest, errorText string) {
	event := Event{
		Primitive:      PrimitiveEventRequest,
		Method:         tracked.method,
		URL:            tracked.url,
		Duration:       r.clock.Now().Sub(tracked.start),
		RequestHeaders: serialize.FlattenHeader(request.RequestHeader()),
		RequestBody:    tracked.body,
		RequestSize:    tracked.size,
	}
	if errorText != "" {
		event.Error = errorText
	} else {
		event.Status = request.Status()
		event.ResponseHeaders = parseHeaderBlock(request.GetAllResponseHeaders())
		response := request.Response()
		event.ResponseSize = int64(len(response))
		if isTextContent(request.GetResponseHeader("Content-Type")) {
			event.ResponseBody = string(truncateCapture(response))
		} else {
			event.ResponseBody = BodyBinaryResponse
		}
	}

	tracked.removeListeners()
	r.notify(event)
	r.untrackIf(request, tracked)
}

func (r *Registry) untrack(request *evhttp.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, request)
}

// untrackIf removes the tracking entry only if it is still tracked;
// a reopened request has a newer one.
func (r *Registry) untrackIf(request *evhttp.Request, tracked *trackedRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[request] == tracked {
		delete(r.active, request)
	}
}

func summarizeEventBody(body any) (string, int64) {
	switch typed := body.(type) {
	case nil:
		return "", 0
	case string:
		return string(truncateCapture([]byte(typed))), int64(len(typed))
	case *evhttp.FormData:
		return BodyFormData, 0
	case []byte:
		return BodyArrayBuffer, int64(len(typed))
	case io.Reader:
		return BodyBinary, 0
	}
	return BodyBinary, 0
}

// parseHeaderBlock parses "name: value" CRLF lines into a map with
// lower-cased names.
func parseHeaderBlock(block string) map[string]string {
	headers := make(map[string]string)
	for _, line := range strings.Split(block, "\r\n") {
		name, value, ok := strings.Cut(line, ": ")
		if !ok || name == "" || value == "" {
			continue
		}
		headers[strings.ToLower(name)] = value
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}
