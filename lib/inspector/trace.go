// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspector

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/inspector/lib/envelope"
)

// TraceHandle ends a trace started by Trace.
type TraceHandle struct {
	inspector *Inspector
	name      string
	id        string
	start     time.Time
	once      sync.Once
}

// Trace emits a start record and returns a handle whose End emits the
// matching end record. The id defaults to a fresh UUID.
func (i *Inspector) Trace(name string, id ...string) *TraceHandle {
	traceID := ""
	if len(id) > 0 {
		traceID = id[0]
	}
	if traceID == "" {
		traceID = uuid.NewString()
	}

	handle := &TraceHandle{inspector: i, name: name, id: traceID, start: i.clock.Now()}
	i.send(envelope.New(envelope.TypeTrace, handle.start, envelope.TraceData{
		Name:   name,
		ID:     traceID,
		Action: envelope.TraceStart,
	}))
	return handle
}

// ID returns the trace identifier.
func (h *TraceHandle) ID() string {
	return h.id
}

// End emits the end record with the elapsed milliseconds and an
// optional extra payload. Only the first call emits.
func (h *TraceHandle) End(extra map[string]any) {
	h.once.Do(func() {
		now := h.inspector.clock.Now()
		duration := now.Sub(h.start).Milliseconds()
		data := envelope.TraceData{
			Name:     h.name,
			ID:       h.id,
			Action:   envelope.TraceEnd,
			Duration: &duration,
		}
		if extra != nil {
			data.Extra = h.inspector.sanitizePayload(extra)
		}
		h.inspector.send(envelope.New(envelope.TypeTrace, now, data))
	})
}
