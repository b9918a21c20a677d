// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netcapture

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/bureau-foundation/inspector/lib/clock"
	"github.com/bureau-foundation/inspector/lib/evhttp"
)

// HookTarget reads and replaces the evhttp hooks.
type HookTarget interface {
	CurrentHooks() evhttp.Hooks
	SetHooks(evhttp.Hooks)
}

type evhttpHooks struct{}

func (evhttpHooks) CurrentHooks() evhttp.Hooks  { return evhttp.CurrentHooks() }
func (evhttpHooks) SetHooks(hooks evhttp.Hooks) { evhttp.SetHooks(hooks) }

// Options configures a Registry. Zero fields select the process
// globals.
type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger

	// FetchTarget is the variable holding the fetch primitive.
	// Defaults to &http.DefaultTransport.
	FetchTarget *http.RoundTripper

	// Hooks reaches the event-request primitive. Defaults to the
	// evhttp package hooks.
	Hooks HookTarget
}

// Status is a point-in-time view of the registry.
type Status struct {
	FetchPatched            bool
	EventRequestPatched     bool
	FetchSubscribers        int
	EventRequestSubscribers int
	ActiveEventRequests     int
}

type subscriber struct {
	id       uint64
	callback Callback
}

// Registry owns the instrumentation of both primitives and their
// subscriber sets.
type Registry struct {
	clock       clock.Clock
	logger      *slog.Logger
	fetchTarget *http.RoundTripper
	hooks       HookTarget

	mu                  sync.Mutex
	fetchPatched        bool
	eventRequestPatched bool
	nextID              uint64
	fetchSubscribers    []subscriber
	eventSubscribers    []subscriber
	active              map[*evhttp.Request]*trackedRequest
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry over http.DefaultTransport
// and the evhttp hooks, creating it on first use. It is never torn
// down.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New(Options{})
	})
	return defaultRegistry
}

// New creates a registry. Only one registry per target should exist;
// Default is that registry for the process globals.
func New(options Options) *Registry {
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.FetchTarget == nil {
		options.FetchTarget = &http.DefaultTransport
	}
	if options.Hooks == nil {
		options.Hooks = evhttpHooks{}
	}
	return &Registry{
		clock:       options.Clock,
		logger:      options.Logger.With("component", "netcapture"),
		fetchTarget: options.FetchTarget,
		hooks:       options.Hooks,
		active:      make(map[*evhttp.Request]*trackedRequest),
	}
}

// RegisterFetch subscribes callback to fetch events. The first call
// wraps the fetch primitive. The returned function unsubscribes; it
// does not unwrap.
func (r *Registry) RegisterFetch(callback Callback) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.addLocked(&r.fetchSubscribers, callback)
	if !r.fetchPatched {
		*r.fetchTarget = r.WrapTransport(*r.fetchTarget)
		r.fetchPatched = true
		r.logger.Debug("fetch primitive wrapped")
	}
	r.logger.Debug("fetch subscriber registered", "subscribers", len(r.fetchSubscribers))

	return r.disposer(&r.fetchSubscribers, id, PrimitiveFetch)
}

// RegisterEventRequest subscribes callback to evhttp events. The first
// call wraps the evhttp hooks.
func (r *Registry) RegisterEventRequest(callback Callback) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.addLocked(&r.eventSubscribers, callback)
	if !r.eventRequestPatched {
		r.hooks.SetHooks(r.wrapHooks(r.hooks.CurrentHooks()))
		r.eventRequestPatched = true
		r.logger.Debug("event-request primitive wrapped")
	}
	r.logger.Debug("event-request subscriber registered", "subscribers", len(r.eventSubscribers))

	return r.disposer(&r.eventSubscribers, id, PrimitiveEventRequest)
}

func (r *Registry) addLocked(set *[]subscriber, callback Callback) uint64 {
	r.nextID++
	*set = append(*set, subscriber{id: r.nextID, callback: callback})
	return r.nextID
}

func (r *Registry) disposer(set *[]subscriber, id uint64, primitive Primitive) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, entry := range *set {
				if entry.id == id {
					*set = append((*set)[:i:i], (*set)[i+1:]...)
					break
				}
			}
			r.logger.Debug("subscriber unregistered",
				"primitive", primitive.String(),
				"remaining", len(*set),
			)
		})
	}
}

// Status reports patch flags and subscriber counts.
func (r *Registry) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		FetchPatched:            r.fetchPatched,
		EventRequestPatched:     r.eventRequestPatched,
		FetchSubscribers:        len(r.fetchSubscribers),
		EventRequestSubscribers: len(r.eventSubscribers),
		ActiveEventRequests:     len(r.active),
	}
}

func (r *Registry) hasSubscribers(primitive Primitive) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if primitive == PrimitiveFetch {
		return len(r.fetchSubscribers) > 0
	}
	return len(r.eventSubscribers) > 0
}

// notify delivers event to every subscriber of its primitive, each
// under its own recover.
func (r *Registry) notify(event Event) {
	r.mu.Lock()
	var set []subscriber
	if event.Primitive == PrimitiveFetch {
		set = append(set, r.fetchSubscribers...)
	} else {
		set = append(set, r.eventSubscribers...)
	}
	r.mu.Unlock()

	for _, entry := range set {
		r.invoke(entry, event)
	}
}

func (r *Registry) invoke(entry subscriber, event Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("network subscriber panicked",
				"primitive", event.Primitive.String(),
				"subscriber", entry.id,
				"panic", recovered,
			)
		}
	}()
	entry.callback(event)
}
