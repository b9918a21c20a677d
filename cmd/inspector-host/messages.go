// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/google/uuid"

	"github.com/bureau-foundation/inspector/lib/clock"
	"github.com/bureau-foundation/inspector/lib/envelope"
	"github.com/bureau-foundation/inspector/lib/serialize"
)

// Filter selects stored messages. Zero fields match everything.
type Filter struct {
	// Type restricts results to one envelope type.
	Type envelope.Type

	// Search matches, ignoring case, against the serialized data,
	// the serialized tags, and the type name.
	Search string

	// Tags must all be present with equal values.
	Tags map[string]string

	// Since and Until bound the envelope timestamp, inclusive.
	Since time.Time
	Until time.Time
}

// Match reports whether env passes every set criterion.
func (f Filter) Match(env envelope.Envelope) bool {
	if f.Type != 0 && env.Type != f.Type {
		return false
	}
	if !f.Since.IsZero() && env.Timestamp < f.Since.UnixMilli() {
		return false
	}
	if !f.Until.IsZero() && env.Timestamp > f.Until.UnixMilli() {
		return false
	}
	for key, value := range f.Tags {
		if got, ok := env.Tags[key]; !ok || got != value {
			return false
		}
	}
	if f.Search != "" {
		return strings.Contains(searchableText(env), strings.ToLower(f.Search))
	}
	return true
}

func searchableText(env envelope.Envelope) string {
	unbounded := serialize.Options{MaxSize: 1 << 30}
	return strings.ToLower(strings.Join([]string{
		serialize.SafeStringify(env.Data, unbounded),
		serialize.SafeStringify(env.Tags, unbounded),
		env.Type.String(),
	}, " "))
}

// MessageStore keeps the most recent envelopes up to a limit,
// evicting the oldest first. Safe for concurrent use.
type MessageStore struct {
	clock clock.Clock
	limit int

	mu       sync.Mutex
	messages *queue.Queue
	evicted  uint64
}

// NewMessageStore creates a store holding at most limit envelopes.
func NewMessageStore(limit int, clk clock.Clock) *MessageStore {
	if limit <= 0 {
		limit = defaultMaxMessages
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &MessageStore{clock: clk, limit: limit, messages: queue.New()}
}

const defaultMaxMessages = 10000

// Add stores env, filling in a missing ID or timestamp, and returns
// the stored copy.
func (s *MessageStore) Add(env envelope.Envelope) envelope.Envelope {
	if env.Timestamp == 0 {
		env.Timestamp = s.clock.Now().UnixMilli()
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	env.Tags = maps.Clone(env.Tags)

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.messages.Length() >= s.limit {
		s.messages.Remove()
		s.evicted++
	}
	s.messages.Add(env)
	return env
}

// Query returns the matching envelopes, newest first.
func (s *MessageStore) Query(filter Filter) []envelope.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []envelope.Envelope
	for i := s.messages.Length() - 1; i >= 0; i-- {
		env := s.messages.Get(i).(envelope.Envelope)
		if filter.Match(env) {
			out = append(out, env)
		}
	}
	return out
}

// Len returns the number of stored envelopes.
func (s *MessageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages.Length()
}

// Evicted returns how many envelopes the limit has pushed out.
func (s *MessageStore) Evicted() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evicted
}

// Clear drops every stored envelope.
func (s *MessageStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = queue.New()
}
