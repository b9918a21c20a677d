// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sockethost

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/bureau-foundation/inspector/lib/transport/wire"
)

// connection is the transport.Connection handed to a plugin for one
// session.
type connection struct {
	compression wire.CompressionTag
	limit       int
	dropped     *atomic.Uint64

	wake     chan struct{}
	finished chan struct{}

	mu       sync.Mutex
	pending  *queue.Queue
	stopping bool
	graceful bool
}

func newConnection(compression wire.CompressionTag, limit int, dropped *atomic.Uint64) *connection {
	return &connection{
		compression: compression,
		limit:       limit,
		dropped:     dropped,
		wake:        make(chan struct{}, 1),
		finished:    make(chan struct{}),
		pending:     queue.New(),
	}
}

// Send encodes data and queues it. It returns ErrClosed once the
// session has ended and an encoding error for data CBOR cannot
// represent.
func (c *connection) Send(method string, data any) error {
	frame, err := wire.NewMessageFrame(wire.Message{Method: method, Data: data}, c.compression)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.stopping {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.pending.Length() >= c.limit {
		c.pending.Remove()
		c.dropped.Add(1)
	}
	c.pending.Add(frame)
	c.mu.Unlock()

	c.signal()
	return nil
}

// stop ends the writer. A graceful stop flushes queued frames and
// sends Disconnect; otherwise queued frames are dropped.
func (c *connection) stop(graceful bool) {
	c.mu.Lock()
	if !c.stopping {
		c.stopping = true
		c.graceful = graceful
	}
	c.mu.Unlock()
	c.signal()
}

func (c *connection) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// next blocks until frames are queued or the connection is stopping.
func (c *connection) next() (frames []wire.Frame, stopping, graceful bool) {
	for {
		c.mu.Lock()
		if c.pending.Length() > 0 || c.stopping {
			frames = make([]wire.Frame, 0, c.pending.Length())
			for c.pending.Length() > 0 {
				frames = append(frames, c.pending.Remove().(wire.Frame))
			}
			stopping, graceful = c.stopping, c.graceful
			c.mu.Unlock()
			return frames, stopping, graceful
		}
		c.mu.Unlock()
		<-c.wake
	}
}

// writeLoop is the only writer on conn. A write error closes conn so
// the session's read loop ends too.
func (c *connection) writeLoop(conn net.Conn) error {
	defer close(c.finished)
	for {
		frames, stopping, graceful := c.next()
		if stopping && !graceful {
			c.dropped.Add(uint64(len(frames)))
			return nil
		}
		for i, frame := range frames {
			if err := wire.WriteFrame(conn, frame); err != nil {
				c.dropped.Add(uint64(len(frames) - i))
				conn.Close()
				return err
			}
		}
		if stopping {
			return wire.WriteFrame(conn, wire.Frame{Type: wire.FrameDisconnect})
		}
	}
}
