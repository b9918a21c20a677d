// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/inspector/lib/codec"
	"github.com/bureau-foundation/inspector/lib/envelope"
	"github.com/bureau-foundation/inspector/lib/netutil"
	"github.com/bureau-foundation/inspector/lib/transport"
	"github.com/bureau-foundation/inspector/lib/transport/wire"
)

// helloTimeout bounds how long a new client may take to send Hello.
const helloTimeout = 10 * time.Second

// Server accepts inspector clients, performs the handshake, and hands
// every decoded envelope to the message store and the sink.
type Server struct {
	listener net.Listener
	store    *MessageStore
	sink     func(envelope.Envelope)
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	wg      sync.WaitGroup

	received atomic.Uint64
	rejected atomic.Uint64
}

// client is one accepted connection. writeMu serializes the Connect
// and Disconnect frames the server writes.
type client struct {
	conn    net.Conn
	writeMu sync.Mutex
}

func (c *client) write(frame wire.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wire.WriteFrame(c.conn, frame)
}

// NewServer creates a server over listener. sink runs on the
// connection's goroutine for every stored envelope; nil discards.
func NewServer(listener net.Listener, store *MessageStore, sink func(envelope.Envelope), logger *slog.Logger) *Server {
	if sink == nil {
		sink = func(envelope.Envelope) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		listener: listener,
		store:    store,
		sink:     sink,
		logger:   logger,
		clients:  make(map[*client]struct{}),
	}
}

// Serve accepts clients until ctx is cancelled, then sends Disconnect
// to every connected client and waits for their handlers.
func (s *Server) Serve(ctx context.Context) error {
	stopAccept := context.AfterFunc(ctx, func() { s.listener.Close() })
	defer stopAccept()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdown()
			if ctx.Err() != nil || netutil.IsExpectedCloseError(err) {
				return nil
			}
			return fmt.Errorf("accepting clients: %w", err)
		}
		c := &client{conn: conn}
		s.mu.Lock()
		s.clients[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(c)
		}()
	}
}

// Received returns how many envelopes the server has stored.
func (s *Server) Received() uint64 { return s.received.Load() }

// Rejected returns how many messages failed to decode.
func (s *Server) Rejected() uint64 { return s.rejected.Load() }

func (s *Server) shutdown() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.write(wire.Frame{Type: wire.FrameDisconnect}); err != nil && !netutil.IsExpectedCloseError(err) {
			s.logger.Debug("sending disconnect", "error", err)
		}
		c.conn.Close()
	}
	s.wg.Wait()
}

func (s *Server) handle(c *client) {
	defer func() {
		c.conn.Close()
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
	}()

	logger := s.logger.With("remote", remoteName(c.conn))
	if credentials, ok := peerCredentials(c.conn); ok {
		logger = logger.With("pid", credentials.PID, "uid", credentials.UID, "gid", credentials.GID)
	}

	hello, err := s.handshake(c)
	if err != nil {
		if !netutil.IsExpectedCloseError(err) {
			logger.Warn("client handshake failed", "error", err)
		}
		return
	}
	logger = logger.With("plugin", hello.Plugin)
	logger.Info("client connected",
		"background", hello.Background,
		"compression", hello.Compression.String(),
	)

	err = s.readMessages(c, logger)
	switch {
	case err == nil:
		logger.Info("client disconnected")
	case netutil.IsExpectedCloseError(err):
		logger.Info("client connection closed")
	default:
		logger.Warn("client connection failed", "error", err)
	}
}

// handshake reads Hello and replies Connect. Clients registering a
// plugin other than the inspector's are told to disconnect.
func (s *Server) handshake(c *client) (wire.Hello, error) {
	// Socket deadlines are wall-clock.
	c.conn.SetReadDeadline(time.Now().Add(helloTimeout)) //nolint:realclock socket deadline
	frame, err := wire.ReadFrame(c.conn)
	if err != nil {
		return wire.Hello{}, err
	}
	c.conn.SetReadDeadline(time.Time{})

	if frame.Type != wire.FrameHello {
		return wire.Hello{}, fmt.Errorf("expected hello, got %s", frame.Type)
	}
	hello, err := wire.ParseHello(frame.Payload)
	if err != nil {
		return wire.Hello{}, err
	}
	if hello.Plugin != transport.PluginID {
		c.write(wire.Frame{Type: wire.FrameDisconnect})
		return wire.Hello{}, fmt.Errorf("unknown plugin %q", hello.Plugin)
	}
	if err := c.write(wire.Frame{Type: wire.FrameConnect}); err != nil {
		return wire.Hello{}, fmt.Errorf("sending connect: %w", err)
	}
	return hello, nil
}

// readMessages stores envelopes until the client disconnects. A
// Disconnect frame returns nil.
func (s *Server) readMessages(c *client, logger *slog.Logger) error {
	for {
		frame, err := wire.ReadFrame(c.conn)
		if err != nil {
			return err
		}
		switch frame.Type {
		case wire.FrameDisconnect:
			return nil
		case wire.FrameMessage:
			env, err := decodeMessage(frame.Payload)
			if err != nil {
				s.rejected.Add(1)
				logger.Warn("dropping undecodable message", "error", err)
				continue
			}
			stored := s.store.Add(env)
			s.received.Add(1)
			s.sink(stored)
		default:
			logger.Debug("ignoring frame", "frame_type", frame.Type.String())
		}
	}
}

var errUnknownMethod = errors.New("unknown message method")

// decodeMessage unpacks a Message payload into an envelope with a
// typed payload.
func decodeMessage(payload []byte) (envelope.Envelope, error) {
	message, err := wire.ParseMessage(payload)
	if err != nil {
		return envelope.Envelope{}, err
	}
	if message.Method != transport.MessageMethod {
		return envelope.Envelope{}, fmt.Errorf("%w %q", errUnknownMethod, message.Method)
	}
	var env envelope.Envelope
	if err := codec.Unmarshal(message.Data, &env); err != nil {
		return envelope.Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	typed, err := env.Decode()
	if err != nil {
		return envelope.Envelope{}, err
	}
	env.Data = typed
	return env, nil
}

func remoteName(conn net.Conn) string {
	if address := conn.RemoteAddr(); address != nil && address.String() != "" {
		return address.String()
	}
	return conn.LocalAddr().Network()
}
