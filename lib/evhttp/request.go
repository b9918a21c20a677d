// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Event names a request lifecycle notification.
type Event string

const (
	// EventLoad fires when a response has been fully read, whatever
	// its status code.
	EventLoad Event = "load"
	// EventError fires when the request failed without a response.
	EventError Event = "error"
	// EventTimeout fires when the configured timeout elapsed first.
	EventTimeout Event = "timeout"
	// EventAbort fires when Abort cancelled the request.
	EventAbort Event = "abort"
	// EventLoadEnd fires after any of the above.
	EventLoadEnd Event = "loadend"
)

// ReadyState is the request lifecycle position.
type ReadyState int

const (
	Unsent ReadyState = iota
	Opened
	Loading
	Done
)

var (
	// ErrNotOpened is returned by Send before Open.
	ErrNotOpened = errors.New("evhttp: request not opened")
	// ErrAlreadySent is returned by Send on a request in flight or
	// finished. Call Open again to reuse a request.
	ErrAlreadySent = errors.New("evhttp: request already sent")
	// ErrUnsupportedBody is returned by Send for body types other
	// than string, []byte, *FormData, and io.Reader.
	ErrUnsupportedBody = errors.New("evhttp: unsupported body type")
)

// baseClient carries every evhttp request.
var baseClient = &http.Client{Transport: newBaseTransport()}

func newBaseTransport() http.RoundTripper {
	if transport, ok := http.DefaultTransport.(*http.Transport); ok {
		return transport.Clone()
	}
	return http.DefaultTransport
}

// Listener receives the request whose event fired.
type Listener func(*Request)

type registration struct {
	id uint64
	fn Listener
}

// Request is one event-driven HTTP exchange. Safe for concurrent use;
// listeners run on the request's own goroutine.
type Request struct {
	mu        sync.Mutex
	state     ReadyState
	method    string
	url       string
	header    http.Header
	timeout   time.Duration
	listeners map[Event][]registration
	nextID    uint64
	cancel    context.CancelFunc
	done      chan struct{}

	status         int
	responseHeader http.Header
	response       []byte
	err            error
}

// New returns an unopened request.
func New() *Request {
	return &Request{
		header:    http.Header{},
		listeners: make(map[Event][]registration),
	}
}

// Open sets the method and URL and resets any previous response.
func (r *Request) Open(method, rawURL string) error {
	return currentHooks().Open(r, method, rawURL)
}

// Send starts the request with body, which may be nil, a string, a
// []byte, a *FormData, or an io.Reader. Send returns once the request
// is in flight; completion is reported through listeners.
func (r *Request) Send(body any) error {
	return currentHooks().Send(r, body)
}

func (r *Request) open(method, rawURL string) error {
	if method == "" {
		return fmt.Errorf("evhttp: empty method")
	}
	if _, err := url.Parse(rawURL); err != nil {
		return fmt.Errorf("evhttp: parsing url: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Loading {
		return ErrAlreadySent
	}
	r.state = Opened
	r.method = strings.ToUpper(method)
	r.url = rawURL
	r.status = 0
	r.responseHeader = nil
	r.response = nil
	r.err = nil
	r.done = make(chan struct{})
	return nil
}

func (r *Request) send(body any) error {
	reader, contentType, err := encodeBody(body)
	if err != nil {
		return err
	}

	r.mu.Lock()
	switch r.state {
	case Unsent:
		r.mu.Unlock()
		return ErrNotOpened
	case Loading, Done:
		r.mu.Unlock()
		return ErrAlreadySent
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), r.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	request, err := http.NewRequestWithContext(ctx, r.method, r.url, reader)
	if err != nil {
		r.mu.Unlock()
		cancel()
		return fmt.Errorf("evhttp: building request: %w", err)
	}
	request.Header = r.header.Clone()
	if contentType != "" && request.Header.Get("Content-Type") == "" {
		request.Header.Set("Content-Type", contentType)
	}
	r.state = Loading
	r.cancel = cancel
	done := r.done
	r.mu.Unlock()

	go r.run(ctx, cancel, request, done)
	return nil
}

// run performs the exchange and fires listeners.
func (r *Request) run(ctx context.Context, cancel context.CancelFunc, request *http.Request, done chan struct{}) {
	defer close(done)
	defer cancel()

	var (
		status  int
		header  http.Header
		payload []byte
	)
	response, err := baseClient.Do(request)
	if err == nil {
		status = response.StatusCode
		header = response.Header
		payload, err = io.ReadAll(response.Body)
		response.Body.Close()
	}

	event := EventLoad
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			event = EventTimeout
		case errors.Is(ctx.Err(), context.Canceled):
			event = EventAbort
		default:
			event = EventError
		}
	}

	r.mu.Lock()
	r.state = Done
	r.status = status
	r.responseHeader = header
	r.response = payload
	r.err = err
	if err != nil {
		r.status = 0
	}
	r.mu.Unlock()

	r.dispatch(event)
	r.dispatch(EventLoadEnd)
}

func (r *Request) dispatch(event Event) {
	r.mu.Lock()
	listeners := append([]registration(nil), r.listeners[event]...)
	r.mu.Unlock()
	for _, listener := range listeners {
		listener.fn(r)
	}
}

// AddEventListener registers fn for event and returns a function that
// removes it. Removing a listener while its event is dispatching does
// not stop the in-progress call.
func (r *Request) AddEventListener(event Event, fn Listener) (remove func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.listeners[event] = append(r.listeners[event], registration{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			list := r.listeners[event]
			for index, entry := range list {
				if entry.id == id {
					r.listeners[event] = append(list[:index:index], list[index+1:]...)
					break
				}
			}
			if len(r.listeners[event]) == 0 {
				delete(r.listeners, event)
			}
		})
	}
}

// ListenerCount reports how many listeners are registered for event.
func (r *Request) ListenerCount(event Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners[event])
}

// SetRequestHeader adds a request header value. Repeated calls for
// one name accumulate.
func (r *Request) SetRequestHeader(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.header.Add(name, value)
}

// SetTimeout bounds the whole exchange. Zero means no timeout. Takes
// effect at the next Send.
func (r *Request) SetTimeout(timeout time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = timeout
}

// Abort cancels an in-flight request. The abort listeners fire on
// the request goroutine.
func (r *Request) Abort() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Done is closed after the final listener of a sent request has run.
// Nil before the first Open.
func (r *Request) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// ReadyState reports the lifecycle position.
func (r *Request) ReadyState() ReadyState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Method returns the method given to Open, upper-cased.
func (r *Request) Method() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.method
}

// URL returns the URL given to Open.
func (r *Request) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

// RequestHeader returns a copy of the headers set so far.
func (r *Request) RequestHeader() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Clone()
}

// Status returns the response status code, or 0 before completion and
// after a failure.
func (r *Request) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Err returns the transport error of a failed request.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Response returns the response body bytes.
func (r *Request) Response() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.response
}

// ResponseText returns the response body as a string.
func (r *Request) ResponseText() string {
	return string(r.Response())
}

// GetResponseHeader returns the first value of a response header.
func (r *Request) GetResponseHeader(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responseHeader.Get(name)
}

// GetAllResponseHeaders returns every response header as
// "name: value" lines terminated by CRLF, names lower-cased and
// sorted.
func (r *Request) GetAllResponseHeaders() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.responseHeader))
	for name := range r.responseHeader {
		names = append(names, name)
	}
	sort.Strings(names)

	var builder strings.Builder
	for _, name := range names {
		builder.WriteString(strings.ToLower(name))
		builder.WriteString(": ")
		builder.WriteString(strings.Join(r.responseHeader[name], ", "))
		builder.WriteString("\r\n")
	}
	return builder.String()
}

func encodeBody(body any) (io.Reader, string, error) {
	switch typed := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return strings.NewReader(typed), "text/plain;charset=UTF-8", nil
	case []byte:
		return bytes.NewReader(typed), "", nil
	case *FormData:
		return typed.encode()
	case io.Reader:
		return typed, "", nil
	}
	return nil, "", fmt.Errorf("%w: %T", ErrUnsupportedBody, body)
}
