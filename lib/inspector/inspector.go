// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspector

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/inspector/lib/buffer"
	"github.com/bureau-foundation/inspector/lib/clock"
	"github.com/bureau-foundation/inspector/lib/config"
	"github.com/bureau-foundation/inspector/lib/envelope"
	"github.com/bureau-foundation/inspector/lib/netcapture"
	"github.com/bureau-foundation/inspector/lib/serialize"
	"github.com/bureau-foundation/inspector/lib/statestore"
	"github.com/bureau-foundation/inspector/lib/transport"
	"github.com/bureau-foundation/inspector/lib/transport/sockethost"
	"github.com/bureau-foundation/inspector/lib/transport/wire"
)

// Option customizes New.
type Option func(*settings)

type settings struct {
	transport transport.Transport
	host      transport.Host
	clock     clock.Clock
	logger    *slog.Logger
	registry  *netcapture.Registry
}

// WithTransport delivers envelopes to t instead of building one.
func WithTransport(t transport.Transport) Option {
	return func(s *settings) { s.transport = t }
}

// WithHost registers a plugin transport with host. Ignored when
// WithTransport is also given. Without either option an enabled
// inspector connects to the socket host named by the config.
func WithHost(host transport.Host) Option {
	return func(s *settings) { s.host = host }
}

// WithClock sets the clock for timestamps, traces, and batching.
func WithClock(c clock.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithLogger sets the logger for internal diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithRegistry sets the interception registry PatchNetwork subscribes
// to. Defaults to netcapture.Default.
func WithRegistry(registry *netcapture.Registry) Option {
	return func(s *settings) { s.registry = registry }
}

// Inspector captures application events and delivers them as
// envelopes. Safe for concurrent use.
type Inspector struct {
	config    config.Config
	enabled   bool
	clock     clock.Clock
	logger    *slog.Logger
	transport transport.Transport
	registry  *netcapture.Registry
	buffer    *buffer.Buffer
	state     *statestore.Store

	// ownedHost is the socket host New created, closed by Destroy.
	ownedHost *sockethost.Host

	mu          sync.Mutex
	destroyed   bool
	nextBinding uint64
	bindings    map[uint64]func()
}

// New creates an inspector. Invalid configuration values are replaced
// by defaults and logged.
//
// Callers should start from [config.Default] and change what they
// need. New does not fill in absent fields: in a zero Config,
// Batch.IntervalMs of 0 means every envelope is delivered as it is
// produced, with no batching.
func New(cfg config.Config, options ...Option) *Inspector {
	var s settings
	for _, option := range options {
		option(&s)
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	logger := s.logger.With("component", "inspector")

	for _, fallback := range cfg.Normalize() {
		logger.Warn("inspector config value replaced", "detail", fallback)
	}
	if s.registry == nil {
		s.registry = netcapture.Default()
	}
	var owned *sockethost.Host
	if s.transport == nil && s.host == nil && cfg.IsEnabled() {
		owned = newSocketHost(cfg.Host, s.clock, s.logger)
		s.host = owned
	}
	if s.transport == nil {
		s.transport = transport.New(transport.Options{
			Development: cfg.IsEnabled(),
			Host:        s.host,
			Logger:      s.logger,
		})
	}

	i := &Inspector{
		config:    cfg,
		enabled:   cfg.IsEnabled(),
		clock:     s.clock,
		logger:    logger,
		transport: s.transport,
		registry:  s.registry,
		ownedHost: owned,
		bindings:  make(map[uint64]func()),
	}
	i.state = statestore.NewStore(i.emitState)

	if cfg.Batch.IntervalMs > 0 {
		i.buffer = buffer.New(i.deliver,
			time.Duration(cfg.Batch.IntervalMs)*time.Millisecond,
			cfg.Batch.MaxItems, s.clock, s.logger)
	}
	if cfg.NetworkEnabled {
		i.PatchNetwork(NetworkOptions{})
	}
	return i
}

func newSocketHost(cfg config.HostConfig, clk clock.Clock, logger *slog.Logger) *sockethost.Host {
	compression, err := wire.ParseCompressionTag(cfg.Compression)
	if err != nil {
		logger.Warn("unknown host compression, sending uncompressed",
			"compression", cfg.Compression, "error", err)
		compression = wire.CompressionNone
	}
	return sockethost.New(sockethost.Options{
		Network:     cfg.Network,
		Address:     cfg.Address,
		Compression: compression,
		QueueLimit:  cfg.QueueLimit,
		Clock:       clk,
		Logger:      logger,
	})
}

// Log records a named event with an optional payload.
func (i *Inspector) Log(event string, payload map[string]any) {
	data := envelope.LogData{Event: event}
	if payload != nil {
		data.Payload = i.sanitizePayload(payload)
	}
	i.emit(envelope.TypeLog, data, nil)
}

// stackTracer is implemented by errors that carry a stack trace.
type stackTracer interface {
	Stack() string
}

// Error records an error value or message. An error's stack comes
// from a Stack method, or from its %+v form when that adds detail.
func (i *Inspector) Error(err any, meta map[string]any) {
	var data envelope.ErrorData
	switch typed := err.(type) {
	case nil:
		data.Error = "<nil>"
	case error:
		data.Error = typed.Error()
		if tracer, ok := typed.(stackTracer); ok {
			data.Stack = tracer.Stack()
		} else if verbose := fmt.Sprintf("%+v", typed); verbose != data.Error {
			data.Stack = verbose
		}
	case string:
		data.Error = typed
	default:
		data.Error = fmt.Sprint(typed)
	}
	if meta != nil {
		data.Meta = i.sanitizePayload(meta)
	}
	i.emit(envelope.TypeError, data, nil)
}

// Metric records a numeric sample. tags override the default tags.
func (i *Inspector) Metric(name string, value float64, tags map[string]string) {
	i.emit(envelope.TypeMetric, envelope.MetricData{Name: name, Value: value}, tags)
}

// State returns the inspector's state store.
func (i *Inspector) State() *statestore.Store {
	return i.state
}

// Flush delivers buffered envelopes now.
func (i *Inspector) Flush() {
	if i.buffer != nil {
		i.buffer.Flush()
	}
}

// IsEnabled reports whether the inspector emits anything.
func (i *Inspector) IsEnabled() bool {
	return i.enabled
}

// IsConnected reports whether an inspection host is connected.
func (i *Inspector) IsConnected() bool {
	return i.transport.IsConnected()
}

// Config returns the normalized configuration.
func (i *Inspector) Config() config.Config {
	return i.config
}

// Destroy releases network subscriptions and store bindings, then
// flushes the buffer one last time. Later calls are no-ops.
func (i *Inspector) Destroy() {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		return
	}
	i.destroyed = true
	bindings := slices.Collect(maps.Values(i.bindings))
	clear(i.bindings)
	i.mu.Unlock()

	for _, dispose := range bindings {
		dispose()
	}
	if i.buffer != nil {
		i.buffer.Destroy()
	}
	if i.ownedHost != nil {
		if err := i.ownedHost.Close(); err != nil {
			i.logger.Warn("closing inspection host", "error", err)
		}
	}
	i.logger.Debug("inspector destroyed", "released_bindings", len(bindings))
}

func (i *Inspector) isDestroyed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.destroyed
}

// bind records dispose for Destroy and returns a function that runs
// it at most once. Binding after Destroy disposes immediately.
func (i *Inspector) bind(dispose func()) func() {
	i.mu.Lock()
	if i.destroyed {
		i.mu.Unlock()
		dispose()
		return func() {}
	}
	i.nextBinding++
	id := i.nextBinding
	i.bindings[id] = dispose
	i.mu.Unlock()

	return func() {
		i.mu.Lock()
		dispose, ok := i.bindings[id]
		delete(i.bindings, id)
		i.mu.Unlock()
		if ok {
			dispose()
		}
	}
}

func (i *Inspector) emit(kind envelope.Type, data any, tags map[string]string) {
	env := envelope.New(kind, i.clock.Now(), data)
	if len(tags) > 0 {
		env.Tags = maps.Clone(tags)
	}
	i.send(env)
}

// send routes env to the buffer or straight to the transport.
func (i *Inspector) send(env envelope.Envelope) {
	if !i.enabled || i.isDestroyed() {
		return
	}
	env = env.WithTags(i.config.Tags)
	if i.buffer != nil {
		i.buffer.Add(env)
		return
	}
	i.transport.Send(env)
}

// deliver is the buffer's flush callback.
func (i *Inspector) deliver(batch []envelope.Envelope) {
	for _, env := range batch {
		i.transport.Send(env)
	}
}

func (i *Inspector) emitState(data envelope.StateData) {
	if data.Data != nil {
		data.Data = i.sanitizePayload(data.Data)
	}
	i.emit(envelope.TypeState, data, nil)
}

// sanitizePayload converts value to a serializable tree. A tree whose
// JSON form exceeds MaxPayloadSize is replaced by a summary naming
// its size and top-level keys.
func (i *Inspector) sanitizePayload(value any) any {
	tree := serialize.Sanitize(value, serialize.Options{})
	limit := i.config.MaxPayloadSize
	if serialize.SafeStringify(tree, serialize.Options{MaxSize: limit}) != serialize.MarkerSizeLimit {
		return tree
	}

	size := len(serialize.SafeStringify(tree, serialize.Options{MaxSize: unboundedSize}))
	summary := map[string]any{
		"_truncated": true,
		"_size":      int64(size),
	}
	if object, ok := tree.(map[string]any); ok {
		keys := slices.Sorted(maps.Keys(object))
		list := make([]any, len(keys))
		for n, key := range keys {
			list[n] = key
		}
		summary["_keys"] = list
	}
	i.logger.Debug("payload exceeded size limit", "size", size, "limit", limit)
	return summary
}

// unboundedSize lifts the stringify cap when measuring an oversized
// payload.
const unboundedSize = 1 << 30
