// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package envelope

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/inspector/lib/codec"
)

// Type identifies an envelope's payload variant.
type Type uint8

const (
	// TypeLog carries a LogData payload.
	TypeLog Type = iota + 1
	// TypeError carries an ErrorData payload.
	TypeError
	// TypeMetric carries a MetricData payload.
	TypeMetric
	// TypeState carries a StateData payload.
	TypeState
	// TypeTrace carries a TraceData payload.
	TypeTrace
	// TypeNetwork carries a NetworkRecord payload.
	TypeNetwork
)

var typeNames = map[Type]string{
	TypeLog:     "log",
	TypeError:   "error",
	TypeMetric:  "metric",
	TypeState:   "state",
	TypeTrace:   "trace",
	TypeNetwork: "network",
}

// Types lists every valid Type in declaration order.
func Types() []Type {
	return []Type{TypeLog, TypeError, TypeMetric, TypeState, TypeTrace, TypeNetwork}
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// IsValid reports whether t is one of the declared types.
func (t Type) IsValid() bool {
	_, ok := typeNames[t]
	return ok
}

// MarshalText encodes the type as its name.
func (t Type) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("envelope: invalid type %d", uint8(t))
	}
	return []byte(typeNames[t]), nil
}

// UnmarshalText parses a type name.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseType maps a type name to its Type.
func ParseType(name string) (Type, error) {
	for candidate, candidateName := range typeNames {
		if candidateName == name {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("envelope: unknown type %q", name)
}

// Envelope is one captured observation. ID and Timestamp are fixed by
// New; nothing downstream rewrites them.
type Envelope struct {
	ID        string            `json:"id"`
	Type      Type              `json:"type"`
	Timestamp int64             `json:"ts"`
	Data      any               `json:"data"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// New builds an envelope stamped with a fresh UUID and the time now
// in milliseconds since the epoch.
func New(kind Type, now time.Time, data any) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Type:      kind,
		Timestamp: now.UnixMilli(),
		Data:      data,
	}
}

// Time returns the envelope timestamp as a time.Time.
func (e Envelope) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// WithTags returns a copy of e whose tags are defaults overlaid by
// the envelope's own tags. The envelope's tags win on conflict.
func (e Envelope) WithTags(defaults map[string]string) Envelope {
	if len(defaults) == 0 {
		return e
	}
	merged := make(map[string]string, len(defaults)+len(e.Tags))
	for key, value := range defaults {
		merged[key] = value
	}
	for key, value := range e.Tags {
		merged[key] = value
	}
	e.Tags = merged
	return e
}

// Decode converts e.Data, as produced by a CBOR round trip, back into
// the typed payload for e.Type. Data already holding the typed payload
// is returned unchanged.
func (e Envelope) Decode() (any, error) {
	var target any
	switch e.Type {
	case TypeLog:
		target = &LogData{}
	case TypeError:
		target = &ErrorData{}
	case TypeMetric:
		target = &MetricData{}
	case TypeState:
		target = &StateData{}
	case TypeTrace:
		target = &TraceData{}
	case TypeNetwork:
		target = &NetworkRecord{}
	default:
		return nil, fmt.Errorf("envelope: cannot decode payload of %v", e.Type)
	}

	switch e.Data.(type) {
	case LogData, ErrorData, MetricData, StateData, TraceData, NetworkRecord:
		return e.Data, nil
	}

	encoded, err := codec.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("envelope: re-encoding %v payload: %w", e.Type, err)
	}
	if err := codec.Unmarshal(encoded, target); err != nil {
		return nil, fmt.Errorf("envelope: decoding %v payload: %w", e.Type, err)
	}

	switch payload := target.(type) {
	case *LogData:
		return *payload, nil
	case *ErrorData:
		return *payload, nil
	case *MetricData:
		return *payload, nil
	case *StateData:
		return *payload, nil
	case *TraceData:
		return *payload, nil
	default:
		return *target.(*NetworkRecord), nil
	}
}
