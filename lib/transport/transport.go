// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/inspector/lib/envelope"
)

// PluginID is the identifier the inspector registers with a host.
const PluginID = "flipper-inspector"

// MessageMethod is the connection method every envelope is sent on.
const MessageMethod = "message"

// Transport delivers envelopes. Send never blocks on the network and
// never reports failure.
type Transport interface {
	Send(envelope.Envelope)
	IsConnected() bool
}

// Connection is a live channel to the host, valid between OnConnect
// and OnDisconnect.
type Connection interface {
	Send(method string, data any) error
}

// Plugin is the registration a Transport makes with a Host.
type Plugin struct {
	ID              string
	OnConnect       func(Connection)
	OnDisconnect    func()
	RunInBackground bool
}

// Host accepts plugin registrations.
type Host interface {
	AddPlugin(Plugin) error
}

// NoopTransport discards everything.
type NoopTransport struct{}

func (NoopTransport) Send(envelope.Envelope) {}

func (NoopTransport) IsConnected() bool { return false }

// Options configures New.
type Options struct {
	// Development enables delivery. Without it New returns a
	// NoopTransport.
	Development bool
	Host        Host
	Logger      *slog.Logger
}

// New returns a PluginTransport registered with options.Host, or a
// NoopTransport when delivery is disabled, no host is present, or
// registration fails.
func New(options Options) Transport {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "transport")

	if !options.Development || options.Host == nil {
		return NoopTransport{}
	}

	transport := &PluginTransport{logger: logger}
	if err := register(options.Host, transport.Plugin()); err != nil {
		logger.Warn("host registration failed, inspector output disabled", "error", err)
		return NoopTransport{}
	}
	return transport
}

// register calls AddPlugin, converting a panic into an error.
func register(host Host, plugin Plugin) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("host panicked during AddPlugin: %v", recovered)
		}
	}()
	return host.AddPlugin(plugin)
}

// PluginTransport forwards envelopes over the host connection while
// one is held.
type PluginTransport struct {
	logger *slog.Logger

	mu         sync.Mutex
	connection Connection
}

// NewPluginTransport returns a disconnected transport. Register its
// Plugin with a host to receive connections.
func NewPluginTransport(logger *slog.Logger) *PluginTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &PluginTransport{logger: logger.With("component", "transport")}
}

// Plugin returns the registration for this transport.
func (t *PluginTransport) Plugin() Plugin {
	return Plugin{
		ID:              PluginID,
		OnConnect:       t.connect,
		OnDisconnect:    t.disconnect,
		RunInBackground: true,
	}
}

func (t *PluginTransport) connect(connection Connection) {
	t.mu.Lock()
	t.connection = connection
	t.mu.Unlock()
	t.logger.Info("inspector host connected")
}

func (t *PluginTransport) disconnect() {
	t.mu.Lock()
	t.connection = nil
	t.mu.Unlock()
	t.logger.Info("inspector host disconnected")
}

// IsConnected reports whether a connection is held.
func (t *PluginTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connection != nil
}

// Send forwards env on the message method. It drops env when
// disconnected and logs connection errors and panics.
func (t *PluginTransport) Send(env envelope.Envelope) {
	t.mu.Lock()
	connection := t.connection
	t.mu.Unlock()
	if connection == nil {
		return
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			t.logger.Error("inspector host connection panicked",
				"envelope_id", env.ID,
				"panic", recovered,
			)
		}
	}()
	if err := connection.Send(MessageMethod, env); err != nil {
		t.logger.Warn("sending to inspector host failed",
			"envelope_id", env.ID,
			"type", env.Type.String(),
			"error", err,
		)
	}
}
