// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

// LogData is the payload of a log envelope.
type LogData struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// ErrorData is the payload of an error envelope.
type ErrorData struct {
	Error string `json:"error"`
	Stack string `json:"stack,omitempty"`
	Meta  any    `json:"meta,omitempty"`
}

// MetricData is the payload of a metric envelope. Metric tags travel
// on the envelope itself.
type MetricData struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TraceAction distinguishes the two records a trace produces.
type TraceAction string

const (
	TraceStart TraceAction = "start"
	TraceEnd   TraceAction = "end"
)

// TraceData is the payload of a trace envelope. Duration is set only
// on the end record, in milliseconds.
type TraceData struct {
	Name     string      `json:"name"`
	ID       string      `json:"id"`
	Action   TraceAction `json:"action"`
	Duration *int64      `json:"duration,omitempty"`
	Extra    any         `json:"extra,omitempty"`
}

// StateAction distinguishes state updates from removals.
type StateAction string

const (
	StateUpdate StateAction = "update"
	StateRemove StateAction = "remove"
)

// StateData is the payload of a state envelope.
//
// Update records carry the section's full merged value in Data and a
// Checksum of it. Remove records carry the removed Keys, or none when
// the whole section went away. Records from a bound application store
// also carry Changes, or Initial on the first snapshot.
type StateData struct {
	Section  string         `json:"section"`
	Action   StateAction    `json:"action"`
	Data     any            `json:"data,omitempty"`
	Keys     []string       `json:"keys,omitempty"`
	Changes  map[string]any `json:"changes,omitempty"`
	Initial  bool           `json:"initial,omitempty"`
	Checksum string         `json:"checksum,omitempty"`
}

// NetworkRecord is the payload of a network envelope: one completed
// or failed request. Status is zero when Error is set.
type NetworkRecord struct {
	Method          string            `json:"method"`
	URL             string            `json:"url"`
	Status          int               `json:"status,omitempty"`
	Duration        int64             `json:"duration"`
	RequestHeaders  map[string]string `json:"requestHeaders,omitempty"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty"`
	RequestBody     string            `json:"requestBody,omitempty"`
	ResponseBody    string            `json:"responseBody,omitempty"`
	RequestSize     int64             `json:"requestSize,omitempty"`
	ResponseSize    int64             `json:"responseSize,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// Failed reports whether the request ended in a transport error
// rather than an HTTP status.
func (r NetworkRecord) Failed() bool {
	return r.Error != ""
}
