// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buffer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/inspector/lib/clock"
	"github.com/bureau-foundation/inspector/lib/envelope"
)

// Defaults substituted for non-positive constructor arguments.
const (
	DefaultInterval = 500 * time.Millisecond
	DefaultMaxItems = 50
)

// FlushFunc receives one batch. The slice is owned by the callee.
type FlushFunc func(batch []envelope.Envelope)

// Buffer accumulates envelopes for delivery. Safe for concurrent use.
type Buffer struct {
	flush    FlushFunc
	interval time.Duration
	maxItems int
	logger   *slog.Logger

	mu        sync.Mutex
	pending   []envelope.Envelope
	timer     *clock.Timer
	destroyed bool

	// flushMu serializes callback invocations so batches reach the
	// callback in swap order even when the timer and a count-triggered
	// flush race.
	flushMu sync.Mutex
}

// New creates a Buffer and arms its interval timer. A nil logger
// uses slog.Default.
func New(flush FlushFunc, interval time.Duration, maxItems int, clk clock.Clock, logger *slog.Logger) *Buffer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Buffer{
		flush:    flush,
		interval: interval,
		maxItems: maxItems,
		logger:   logger,
	}
	b.mu.Lock()
	b.timer = clk.AfterFunc(interval, b.tick)
	b.mu.Unlock()
	return b
}

// Add appends env. Reaching the item limit flushes before Add
// returns. After Destroy, Add drops env.
func (b *Buffer) Add(env envelope.Envelope) {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.pending = append(b.pending, env)
	full := len(b.pending) >= b.maxItems
	b.mu.Unlock()

	if full {
		b.Flush()
	}
}

// Flush delivers everything pending. An empty buffer does not call
// the callback.
func (b *Buffer) Flush() {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	b.deliver(batch)
}

// deliver runs the callback, containing any panic so the timer
// goroutine and the producer survive a broken sink.
func (b *Buffer) deliver(batch []envelope.Envelope) {
	defer func() {
		if recovered := recover(); recovered != nil {
			b.logger.Error("buffer flush callback panicked, batch dropped",
				"panic", recovered,
				"batch_size", len(batch),
			)
		}
	}()
	b.flush(batch)
}

// tick is the timer callback: flush, then re-arm unless destroyed.
func (b *Buffer) tick() {
	b.Flush()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.destroyed {
		b.timer.Reset(b.interval)
	}
}

// Clear discards pending envelopes without delivering them.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.pending = nil
	b.mu.Unlock()
}

// Size returns the number of pending envelopes.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Destroy stops the timer and flushes what remains. Later calls do
// nothing.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true
	b.timer.Stop()
	b.mu.Unlock()

	b.Flush()
}
