// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netcapture

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/inspector/lib/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// collector gathers events delivered to a subscriber.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) callback(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// fetchFixture builds a registry over a private fetch primitive.
func fetchFixture(t *testing.T) (*Registry, *http.Client, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(epoch)
	var target http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()
	registry := New(Options{Clock: fake, FetchTarget: &target, Hooks: &hookTarget{}})
	// The client dereferences the target per request, as code using
	// the process default transport would.
	client := &http.Client{Transport: roundTripFunc(func(request *http.Request) (*http.Response, error) {
		return target.RoundTrip(request)
	})}
	return registry, client, fake
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(request *http.Request) (*http.Response, error) { return f(request) }

func TestFetchCapturesCompletedExchange(t *testing.T) {
	registry, client, fake := fetchFixture(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.Advance(150 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	events := &collector{}
	registry.RegisterFetch(events.callback)

	request, _ := http.NewRequest(http.MethodGet, server.URL+"/posts/1", nil)
	request.Header.Set("Authorization", "Bearer secret")
	response, err := client.Do(request)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	body, _ := io.ReadAll(response.Body)
	response.Body.Close()
	if string(body) != `{"id":1}` {
		t.Fatalf("caller body = %q", body)
	}

	got := events.snapshot()
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	event := got[0]
	if event.Primitive != PrimitiveFetch || event.Method != "GET" {
		t.Errorf("primitive/method = %v %s", event.Primitive, event.Method)
	}
	if event.URL != server.URL+"/posts/1" {
		t.Errorf("URL = %q", event.URL)
	}
	if event.Status != 200 || event.Error != "" {
		t.Errorf("status = %d, error = %q", event.Status, event.Error)
	}
	if event.Duration != 150*time.Millisecond {
		t.Errorf("Duration = %v, want 150ms", event.Duration)
	}
	if event.ResponseBody != `{"id":1}` || event.ResponseSize != 8 {
		t.Errorf("response body = %q (%d bytes)", event.ResponseBody, event.ResponseSize)
	}
	if event.RequestHeaders["authorization"] != "Bearer secret" {
		t.Errorf("request headers = %v", event.RequestHeaders)
	}
	if !strings.HasPrefix(event.ResponseHeaders["content-type"], "application/json") {
		t.Errorf("response headers = %v", event.ResponseHeaders)
	}
}

func TestFetchReportsEventOnClose(t *testing.T) {
	registry, client, _ := fetchFixture(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("unread"))
	}))
	defer server.Close()

	events := &collector{}
	registry.RegisterFetch(events.callback)

	response, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(events.snapshot()) != 0 {
		t.Fatal("event delivered before the body was consumed")
	}
	response.Body.Close()
	response.Body.Close()
	if got := events.snapshot(); len(got) != 1 {
		t.Fatalf("got %d events after Close, want 1", len(got))
	}
}

func TestFetchLabelsBinaryResponse(t *testing.T) {
	registry, client, _ := fetchFixture(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer server.Close()

	events := &collector{}
	registry.RegisterFetch(events.callback)

	response, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	io.ReadAll(response.Body)
	response.Body.Close()

	event := events.snapshot()[0]
	if event.ResponseBody != BodyBinaryResponse {
		t.Errorf("ResponseBody = %q", event.ResponseBody)
	}
	if event.ResponseSize != 4 {
		t.Errorf("ResponseSize = %d", event.ResponseSize)
	}
}

func TestFetchSummarizesRequestBodies(t *testing.T) {
	registry, client, _ := fetchFixture(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
	}))
	defer server.Close()

	events := &collector{}
	registry.RegisterFetch(events.callback)

	tests := []struct {
		name        string
		body        io.Reader
		contentType string
		want        string
	}{
		{"text", strings.NewReader(`{"title":"x"}`), "application/json", `{"title":"x"}`},
		{"multipart", strings.NewReader("--b\r\n"), "multipart/form-data; boundary=b", BodyFormData},
		{"not replayable", io.MultiReader(strings.NewReader("stream")), "text/plain", BodyBinary},
		{"invalid utf-8", bytes.NewReader([]byte{0xff, 0xfe}), "application/octet-stream", BodyBinary},
	}
	for _, test := range tests {
		request, _ := http.NewRequest(http.MethodPost, server.URL, test.body)
		request.Header.Set("Content-Type", test.contentType)
		response, err := client.Do(request)
		if err != nil {
			t.Fatalf("%s: Do: %v", test.name, err)
		}
		response.Body.Close()
	}

	got := events.snapshot()
	if len(got) != len(tests) {
		t.Fatalf("got %d events, want %d", len(got), len(tests))
	}
	for i, test := range tests {
		if got[i].RequestBody != test.want {
			t.Errorf("%s: RequestBody = %q, want %q", test.name, got[i].RequestBody, test.want)
		}
		if got[i].Method != "POST" {
			t.Errorf("%s: Method = %q", test.name, got[i].Method)
		}
	}
}

func TestFetchTransportErrorPropagatesUnchanged(t *testing.T) {
	fake := clock.Fake(epoch)
	failure := errors.New("dial refused")
	var target http.RoundTripper = roundTripFunc(func(*http.Request) (*http.Response, error) {
		fake.Advance(20 * time.Millisecond)
		return nil, failure
	})
	registry := New(Options{Clock: fake, FetchTarget: &target, Hooks: &hookTarget{}})

	events := &collector{}
	registry.RegisterFetch(events.callback)

	request, _ := http.NewRequest(http.MethodDelete, "http://example.invalid/x", nil)
	_, err := target.RoundTrip(request)
	if err != failure {
		t.Fatalf("RoundTrip error = %v, want the original error", err)
	}

	got := events.snapshot()
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].Error != "dial refused" || got[0].Status != 0 {
		t.Errorf("event = %+v", got[0])
	}
	if got[0].Duration != 20*time.Millisecond {
		t.Errorf("Duration = %v", got[0].Duration)
	}
}

func TestFetchSubscriberPanicIsIsolated(t *testing.T) {
	registry, client, _ := fetchFixture(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	registry.RegisterFetch(func(Event) { panic("subscriber bug") })
	events := &collector{}
	registry.RegisterFetch(events.callback)

	response, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	io.ReadAll(response.Body)
	response.Body.Close()

	if len(events.snapshot()) != 1 {
		t.Fatal("second subscriber did not receive the event")
	}
}

func TestFetchPatchesOnceAndDisposeKeepsWrapper(t *testing.T) {
	registry, client, _ := fetchFixture(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	target := registry.fetchTarget
	first := &collector{}
	disposeFirst := registry.RegisterFetch(first.callback)
	wrapped := *target
	second := &collector{}
	disposeSecond := registry.RegisterFetch(second.callback)
	if *target != wrapped {
		t.Fatal("second registration re-wrapped the primitive")
	}

	status := registry.Status()
	if !status.FetchPatched || status.FetchSubscribers != 2 {
		t.Fatalf("status = %+v", status)
	}

	disposeFirst()
	disposeFirst()
	if registry.Status().FetchSubscribers != 1 {
		t.Fatalf("subscribers after dispose = %d", registry.Status().FetchSubscribers)
	}

	response, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	response.Body.Close()
	if len(first.snapshot()) != 0 || len(second.snapshot()) != 1 {
		t.Fatalf("first = %d, second = %d events", len(first.snapshot()), len(second.snapshot()))
	}

	disposeSecond()
	status = registry.Status()
	if !status.FetchPatched || status.FetchSubscribers != 0 {
		t.Fatalf("status after last dispose = %+v", status)
	}
	if *target != wrapped {
		t.Fatal("dispose restored the original primitive")
	}

	// With no subscribers the wrapper forwards without recording.
	response, err = client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	response.Body.Close()
	if len(second.snapshot()) != 1 {
		t.Fatal("disposed subscriber received an event")
	}
}

func TestFetchCapturesAtMostMaxCapturedBody(t *testing.T) {
	registry, client, _ := fetchFixture(t)
	large := strings.Repeat("a", MaxCapturedBody+100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(large))
	}))
	defer server.Close()

	events := &collector{}
	registry.RegisterFetch(events.callback)

	response, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(response.Body)
	response.Body.Close()
	if len(body) != len(large) {
		t.Fatalf("caller read %d bytes, want %d", len(body), len(large))
	}

	event := events.snapshot()[0]
	if len(event.ResponseBody) != MaxCapturedBody {
		t.Errorf("captured %d bytes, want %d", len(event.ResponseBody), MaxCapturedBody)
	}
	if event.ResponseSize != int64(len(large)) {
		t.Errorf("ResponseSize = %d", event.ResponseSize)
	}
}
