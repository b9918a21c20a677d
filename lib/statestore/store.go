// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statestore

import (
	"maps"
	"sync"

	"github.com/bureau-foundation/inspector/lib/envelope"
	"github.com/bureau-foundation/inspector/lib/serialize"
)

// EmitFunc receives each mutation. It is called without the store
// lock held.
type EmitFunc func(envelope.StateData)

// Store is a set of named sections. Safe for concurrent use.
type Store struct {
	emit EmitFunc

	mu       sync.Mutex
	sections map[string]map[string]any
}

// NewStore creates an empty store. A nil emit discards mutations.
func NewStore(emit EmitFunc) *Store {
	if emit == nil {
		emit = func(envelope.StateData) {}
	}
	return &Store{
		emit:     emit,
		sections: make(map[string]map[string]any),
	}
}

// Update merges partial into section, creating it if needed, and
// emits the full merged section.
func (s *Store) Update(section string, partial map[string]any) {
	s.mu.Lock()
	current, ok := s.sections[section]
	if !ok {
		current = make(map[string]any, len(partial))
		s.sections[section] = current
	}
	maps.Copy(current, partial)
	merged := maps.Clone(current)
	s.mu.Unlock()

	s.emit(envelope.StateData{
		Section:  section,
		Action:   envelope.StateUpdate,
		Data:     merged,
		Checksum: Checksum(merged),
	})
}

// Remove deletes keys from section, or the whole section when no keys
// are given. Removing from an absent section still emits, so the host
// converges even if it missed the creation.
func (s *Store) Remove(section string, keys ...string) {
	s.mu.Lock()
	if len(keys) == 0 {
		delete(s.sections, section)
	} else if current, ok := s.sections[section]; ok {
		for _, key := range keys {
			delete(current, key)
		}
	}
	s.mu.Unlock()

	record := envelope.StateData{Section: section, Action: envelope.StateRemove}
	if len(keys) > 0 {
		record.Keys = append([]string(nil), keys...)
	}
	s.emit(record)
}

// GetState returns a copy of every section. Section maps are copied;
// values inside them are shared.
func (s *Store) GetState() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := make(map[string]any, len(s.sections))
	for name, section := range s.sections {
		state[name] = maps.Clone(section)
	}
	return state
}

// GetSection returns a copy of one section.
func (s *Store) GetSection(name string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	section, ok := s.sections[name]
	if !ok {
		return nil, false
	}
	return maps.Clone(section), true
}

// Clear drops every section without emitting.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sections)
}

// Size is the length in bytes of the serialized whole state.
func (s *Store) Size() int {
	return len(serialize.SafeStringify(s.GetState(), serialize.Options{MaxSize: maxSizeProbe}))
}

// maxSizeProbe lifts the stringify size cap high enough that Size
// measures large states instead of the limit marker.
const maxSizeProbe = 1 << 30
