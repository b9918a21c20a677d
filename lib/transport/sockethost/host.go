// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sockethost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/inspector/lib/clock"
	"github.com/bureau-foundation/inspector/lib/netutil"
	"github.com/bureau-foundation/inspector/lib/transport"
	"github.com/bureau-foundation/inspector/lib/transport/wire"
)

// ErrClosed is returned by AddPlugin after Close and by connection
// sends after the session ended.
var ErrClosed = errors.New("sockethost: closed")

// ErrHandshake is returned when the host answers Hello with anything
// but Connect.
var ErrHandshake = errors.New("sockethost: handshake rejected")

const (
	defaultQueueLimit       = 1024
	defaultDialTimeout      = 5 * time.Second
	defaultHandshakeTimeout = 5 * time.Second
	defaultInitialBackoff   = time.Second
	defaultMaxBackoff       = 30 * time.Second
	disconnectGrace         = 2 * time.Second
)

// Options configures a Host.
type Options struct {
	// Network is "unix" or "tcp".
	Network string
	Address string

	Compression wire.CompressionTag

	// QueueLimit bounds frames waiting for the writer. Default 1024.
	QueueLimit int

	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// Stats counts session activity across all plugins.
type Stats struct {
	Connected int
	Sessions  uint64
	Dropped   uint64
}

// Host dials the inspection host on behalf of registered plugins.
type Host struct {
	options Options
	clock   clock.Clock
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
	active map[*connection]struct{}

	sessions atomic.Uint64
	dropped  atomic.Uint64
}

// New returns a Host. Nothing is dialed until AddPlugin.
func New(options Options) *Host {
	if options.Network == "" {
		options.Network = "unix"
	}
	if options.QueueLimit <= 0 {
		options.QueueLimit = defaultQueueLimit
	}
	if options.DialTimeout <= 0 {
		options.DialTimeout = defaultDialTimeout
	}
	if options.HandshakeTimeout <= 0 {
		options.HandshakeTimeout = defaultHandshakeTimeout
	}
	if options.InitialBackoff <= 0 {
		options.InitialBackoff = defaultInitialBackoff
	}
	if options.MaxBackoff < options.InitialBackoff {
		options.MaxBackoff = max(defaultMaxBackoff, options.InitialBackoff)
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Host{
		options: options,
		clock:   options.Clock,
		logger: options.Logger.With(
			"component", "sockethost",
			"network", options.Network,
			"address", options.Address,
		),
		ctx:    ctx,
		cancel: cancel,
		active: make(map[*connection]struct{}),
	}
}

// AddPlugin starts a session loop for plugin and returns immediately.
func (h *Host) AddPlugin(plugin transport.Plugin) error {
	if plugin.ID == "" {
		return fmt.Errorf("sockethost: plugin has no ID")
	}
	if h.options.Address == "" {
		return fmt.Errorf("sockethost: no host address configured")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	h.wg.Add(1)
	go h.run(plugin)
	return nil
}

// Close sends Disconnect on every live session, stops the loops, and
// waits for them to exit. Safe to call more than once.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	live := make([]*connection, 0, len(h.active))
	for connection := range h.active {
		live = append(live, connection)
	}
	h.mu.Unlock()

	for _, connection := range live {
		connection.stop(true)
	}
	for _, connection := range live {
		select {
		case <-connection.finished:
		case <-h.clock.After(disconnectGrace):
		}
	}

	h.cancel()
	h.wg.Wait()
	return nil
}

// Stats returns current counters.
func (h *Host) Stats() Stats {
	h.mu.Lock()
	connected := len(h.active)
	h.mu.Unlock()
	return Stats{
		Connected: connected,
		Sessions:  h.sessions.Load(),
		Dropped:   h.dropped.Load(),
	}
}

func (h *Host) run(plugin transport.Plugin) {
	defer h.wg.Done()
	logger := h.logger.With("plugin", plugin.ID)
	backoff := netutil.Backoff{Initial: h.options.InitialBackoff, Max: h.options.MaxBackoff}

	for {
		handshook, err := h.session(plugin, logger)
		if h.ctx.Err() != nil {
			return
		}
		if handshook {
			backoff.Reset()
		}
		delay := backoff.Next()
		switch {
		case err == nil:
			logger.Info("inspector host ended the session", "retry_in", delay)
		case netutil.IsExpectedCloseError(err):
			logger.Info("inspector host connection closed", "retry_in", delay)
		case handshook:
			logger.Warn("inspector host session failed", "error", err, "retry_in", delay)
		default:
			logger.Debug("inspector host unavailable", "error", err, "retry_in", delay)
		}

		select {
		case <-h.clock.After(delay):
		case <-h.ctx.Done():
			return
		}
	}
}

// session runs one dial-to-disconnect cycle. handshook reports whether
// the plugin was connected, which resets the backoff.
func (h *Host) session(plugin transport.Plugin, logger *slog.Logger) (handshook bool, err error) {
	dialer := net.Dialer{Timeout: h.options.DialTimeout}
	conn, err := dialer.DialContext(h.ctx, h.options.Network, h.options.Address)
	if err != nil {
		return false, fmt.Errorf("dialing inspector host: %w", err)
	}
	defer conn.Close()
	stopWatching := context.AfterFunc(h.ctx, func() { conn.Close() })
	defer stopWatching()

	if err := h.handshake(conn, plugin); err != nil {
		return false, err
	}

	connection := newConnection(h.options.Compression, h.options.QueueLimit, &h.dropped)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false, ErrClosed
	}
	h.active[connection] = struct{}{}
	h.mu.Unlock()
	h.sessions.Add(1)

	writerDone := make(chan error, 1)
	go func() { writerDone <- connection.writeLoop(conn) }()

	logger.Info("connected to inspector host")
	h.callback(logger, "OnConnect", func() {
		if plugin.OnConnect != nil {
			plugin.OnConnect(connection)
		}
	})

	readErr := h.readLoop(conn, logger)

	connection.stop(false)
	conn.Close()
	writeErr := <-writerDone

	h.mu.Lock()
	delete(h.active, connection)
	h.mu.Unlock()

	h.callback(logger, "OnDisconnect", func() {
		if plugin.OnDisconnect != nil {
			plugin.OnDisconnect()
		}
	})

	if readErr != nil && !netutil.IsExpectedCloseError(readErr) {
		return true, readErr
	}
	if writeErr != nil && !netutil.IsExpectedCloseError(writeErr) {
		return true, writeErr
	}
	return true, readErr
}

func (h *Host) handshake(conn net.Conn, plugin transport.Plugin) error {
	hello, err := wire.NewHelloFrame(wire.Hello{
		Plugin:      plugin.ID,
		Background:  plugin.RunInBackground,
		Compression: h.options.Compression,
	})
	if err != nil {
		return err
	}

	// Socket deadlines are wall-clock.
	conn.SetDeadline(time.Now().Add(h.options.HandshakeTimeout)) //nolint:realclock socket deadline
	defer conn.SetDeadline(time.Time{})

	if err := wire.WriteFrame(conn, hello); err != nil {
		return fmt.Errorf("sending hello: %w", err)
	}
	reply, err := wire.ReadFrame(conn)
	if err != nil {
		return fmt.Errorf("awaiting connect: %w", err)
	}
	if reply.Type != wire.FrameConnect {
		return fmt.Errorf("%w: host replied %s", ErrHandshake, reply.Type)
	}
	return nil
}

// readLoop reads until the host disconnects. A Disconnect frame
// returns nil.
func (h *Host) readLoop(conn net.Conn, logger *slog.Logger) error {
	for {
		frame, err := wire.ReadFrame(conn)
		if err != nil {
			return err
		}
		switch frame.Type {
		case wire.FrameDisconnect:
			return nil
		case wire.FrameConnect:
		default:
			logger.Debug("ignoring frame from inspector host", "frame_type", frame.Type.String())
		}
	}
}

// callback runs a plugin callback, logging a panic instead of letting
// it end the session loop.
func (h *Host) callback(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("plugin callback panicked", "callback", name, "panic", recovered)
		}
	}()
	fn()
}
