// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"
	"time"

	"github.com/bureau-foundation/inspector/lib/clock"
	"github.com/bureau-foundation/inspector/lib/envelope"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func logAt(event string, at time.Time, tags map[string]string) envelope.Envelope {
	env := envelope.New(envelope.TypeLog, at, envelope.LogData{Event: event})
	env.Tags = tags
	return env
}

func TestMessageStoreEvictsOldest(t *testing.T) {
	store := NewMessageStore(3, clock.Fake(epoch))
	for i, event := range []string{"a", "b", "c", "d", "e"} {
		store.Add(logAt(event, epoch.Add(time.Duration(i)*time.Second), nil))
	}

	if store.Len() != 3 || store.Evicted() != 2 {
		t.Fatalf("Len = %d, Evicted = %d", store.Len(), store.Evicted())
	}
	got := store.Query(Filter{})
	want := []string{"e", "d", "c"}
	for i, env := range got {
		if event := env.Data.(envelope.LogData).Event; event != want[i] {
			t.Errorf("Query[%d] = %s, want %s", i, event, want[i])
		}
	}

	store.Clear()
	if store.Len() != 0 {
		t.Errorf("Len after Clear = %d", store.Len())
	}
}

func TestMessageStoreFillsMissingIdentity(t *testing.T) {
	fake := clock.Fake(epoch)
	store := NewMessageStore(10, fake)
	stored := store.Add(envelope.Envelope{Type: envelope.TypeMetric, Data: envelope.MetricData{Name: "fps"}})
	if stored.ID == "" {
		t.Error("missing ID not filled")
	}
	if stored.Timestamp != epoch.UnixMilli() {
		t.Errorf("Timestamp = %d, want the store clock", stored.Timestamp)
	}
}

func TestFilterMatch(t *testing.T) {
	network := envelope.New(envelope.TypeNetwork, epoch, envelope.NetworkRecord{
		Method: "GET", URL: "https://api.example.com/Posts/1", Status: 200,
	})
	network.Tags = map[string]string{"env": "staging", "app": "demo"}
	log := logAt("UserLoggedIn", epoch.Add(time.Minute), map[string]string{"env": "prod"})

	tests := []struct {
		name   string
		filter Filter
		want   []bool // network, log
	}{
		{"empty", Filter{}, []bool{true, true}},
		{"type", Filter{Type: envelope.TypeNetwork}, []bool{true, false}},
		{"search data ignores case", Filter{Search: "posts/1"}, []bool{true, false}},
		{"search event", Filter{Search: "userloggedin"}, []bool{false, true}},
		{"search tags", Filter{Search: "STAGING"}, []bool{true, false}},
		{"search type name", Filter{Search: "network"}, []bool{true, false}},
		{"tag equality", Filter{Tags: map[string]string{"env": "prod"}}, []bool{false, true}},
		{"all tags required", Filter{Tags: map[string]string{"env": "staging", "app": "other"}}, []bool{false, false}},
		{"since", Filter{Since: epoch.Add(30 * time.Second)}, []bool{false, true}},
		{"until", Filter{Until: epoch.Add(30 * time.Second)}, []bool{true, false}},
		{"range inclusive", Filter{Since: epoch, Until: epoch.Add(time.Minute)}, []bool{true, true}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for i, env := range []envelope.Envelope{network, log} {
				if got := test.filter.Match(env); got != test.want[i] {
					t.Errorf("Match(%s) = %v, want %v", env.Type, got, test.want[i])
				}
			}
		})
	}
}
