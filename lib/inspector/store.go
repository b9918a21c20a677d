// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspector

import (
	"sync"

	"github.com/bureau-foundation/inspector/lib/envelope"
	"github.com/bureau-foundation/inspector/lib/serialize"
	"github.com/bureau-foundation/inspector/lib/statestore"
)

// StateSource is an application store that can be observed.
type StateSource interface {
	// GetState returns the current state.
	GetState() any

	// Subscribe registers listener to run after every state change
	// and returns a function that removes it.
	Subscribe(listener func()) (unsubscribe func())
}

// StoreOptions configures AttachStore.
type StoreOptions struct {
	// Section names the state section. Defaults to DefaultStoreSection.
	Section string

	// Whitelist and Blacklist filter object keys at every depth.
	Whitelist []string
	Blacklist []string

	// Serialize converts the state before filtering.
	Serialize func(state any) any
}

// DefaultStoreSection is the section attached stores report under.
const DefaultStoreSection = "store"

// StoreActionEvent is the log event name RecordAction emits.
const StoreActionEvent = "store_action"

// Action is a dispatched store action.
type Action struct {
	Type    string
	Payload any
	Meta    any
}

// RecordAction logs a dispatched action.
func (i *Inspector) RecordAction(action Action) {
	i.Log(StoreActionEvent, map[string]any{
		"type":    action.Type,
		"payload": action.Payload,
		"meta":    action.Meta,
	})
}

// AttachStore emits source's filtered state as an initial snapshot,
// then emits the changed paths after every notification that changes
// it. The returned function detaches.
func (i *Inspector) AttachStore(source StateSource, options StoreOptions) func() {
	if !i.enabled || source == nil {
		return func() {}
	}
	if options.Section == "" {
		options.Section = DefaultStoreSection
	}
	binding := &storeBinding{
		inspector: i,
		source:    source,
		options:   options,
		filter:    statestore.Filter{Whitelist: options.Whitelist, Blacklist: options.Blacklist},
	}

	binding.mu.Lock()
	if state, ok := binding.snapshot(); ok {
		binding.last = state
		binding.emit(state, nil, true)
	}
	binding.mu.Unlock()

	unsubscribe, ok := binding.subscribe()
	if !ok {
		return func() {}
	}
	return i.bind(func() {
		binding.mu.Lock()
		binding.detached = true
		binding.mu.Unlock()
		unsubscribe()
	})
}

type storeBinding struct {
	inspector *Inspector
	source    StateSource
	options   StoreOptions
	filter    statestore.Filter

	// mu serializes notifications so diffs are taken against the
	// snapshot emitted before them. It is held while emitting.
	mu       sync.Mutex
	last     any
	detached bool
}

func (b *storeBinding) subscribe() (unsubscribe func(), ok bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			b.inspector.logger.Error("store subscribe panicked",
				"section", b.options.Section, "panic", recovered)
			ok = false
		}
	}()
	unsubscribe = b.source.Subscribe(b.changed)
	if unsubscribe == nil {
		unsubscribe = func() {}
	}
	return unsubscribe, true
}

func (b *storeBinding) changed() {
	if b.inspector.isDestroyed() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return
	}
	state, ok := b.snapshot()
	if !ok {
		return
	}
	changes := statestore.Diff(b.last, state)
	b.last = state
	if len(changes) == 0 {
		return
	}
	b.emit(state, changes, false)
}

// snapshot reads, converts, and filters the source state. A panic in
// the source or the serializer is logged and reported as !ok.
func (b *storeBinding) snapshot() (state any, ok bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			b.inspector.logger.Error("reading store state panicked",
				"section", b.options.Section, "panic", recovered)
			state, ok = nil, false
		}
	}()
	state = b.source.GetState()
	if b.options.Serialize != nil {
		state = b.options.Serialize(state)
	}
	state = serialize.Sanitize(state, serialize.Options{})
	return b.filter.Apply(state), true
}

func (b *storeBinding) emit(state any, changes statestore.Changes, initial bool) {
	b.inspector.emitState(envelope.StateData{
		Section:  b.options.Section,
		Action:   envelope.StateUpdate,
		Data:     state,
		Changes:  changes.Wire(),
		Initial:  initial,
		Checksum: statestore.Checksum(state),
	})
}
