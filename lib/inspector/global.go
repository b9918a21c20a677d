// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspector

import (
	"sync"

	"github.com/bureau-foundation/inspector/lib/config"
)

var (
	globalMu sync.Mutex
	global   *Inspector
)

// Init replaces the default instance with one built from cfg. A
// previous default instance is destroyed.
func Init(cfg config.Config, options ...Option) *Inspector {
	next := New(cfg, options...)
	globalMu.Lock()
	previous := global
	global = next
	globalMu.Unlock()
	if previous != nil {
		previous.Destroy()
	}
	return next
}

// Default returns the default instance, creating it from
// config.Default on first use.
func Default() *Inspector {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = New(config.Default())
	}
	return global
}

// Destroy destroys the default instance. The next Default call
// creates a fresh one.
func Destroy() {
	globalMu.Lock()
	previous := global
	global = nil
	globalMu.Unlock()
	if previous != nil {
		previous.Destroy()
	}
}

// Log calls Log on the default instance.
func Log(event string, payload map[string]any) { Default().Log(event, payload) }

// Error calls Error on the default instance.
func Error(err any, meta map[string]any) { Default().Error(err, meta) }

// Metric calls Metric on the default instance.
func Metric(name string, value float64, tags map[string]string) {
	Default().Metric(name, value, tags)
}

// Trace calls Trace on the default instance.
func Trace(name string, id ...string) *TraceHandle { return Default().Trace(name, id...) }

// PatchNetwork calls PatchNetwork on the default instance.
func PatchNetwork(options NetworkOptions) func() { return Default().PatchNetwork(options) }

// AttachStore calls AttachStore on the default instance.
func AttachStore(source StateSource, options StoreOptions) func() {
	return Default().AttachStore(source, options)
}

// RecordAction calls RecordAction on the default instance.
func RecordAction(action Action) { Default().RecordAction(action) }

// UpdateState merges partial into a section of the default
// instance's state store.
func UpdateState(section string, partial map[string]any) {
	Default().State().Update(section, partial)
}

// RemoveState removes keys, or the whole section, from the default
// instance's state store.
func RemoveState(section string, keys ...string) { Default().State().Remove(section, keys...) }

// GetState returns a copy of the default instance's state.
func GetState() map[string]any { return Default().State().GetState() }

// Flush calls Flush on the default instance.
func Flush() { Default().Flush() }

// IsEnabled calls IsEnabled on the default instance.
func IsEnabled() bool { return Default().IsEnabled() }

// IsConnected calls IsConnected on the default instance.
func IsConnected() bool { return Default().IsConnected() }
