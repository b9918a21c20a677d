// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspector

import (
	"testing"

	"github.com/bureau-foundation/inspector/lib/clock"
	"github.com/bureau-foundation/inspector/lib/config"
	"github.com/bureau-foundation/inspector/lib/envelope"
)

func initGlobal(t *testing.T) *recordingTransport {
	t.Helper()
	cfg := config.Default()
	cfg.Batch.IntervalMs = 0
	recorder := &recordingTransport{}
	Init(cfg, WithTransport(recorder), WithClock(clock.Fake(epoch)))
	t.Cleanup(Destroy)
	return recorder
}

func TestPackageFunctionsUseDefaultInstance(t *testing.T) {
	recorder := initGlobal(t)

	Log("started", nil)
	Metric("fps", 60, nil)
	Trace("boot").End(nil)
	Error("failed", nil)
	RecordAction(Action{Type: "reset"})
	UpdateState("session", map[string]any{"user": "ada"})
	RemoveState("session", "user")
	Flush()

	wantTypes := []envelope.Type{
		envelope.TypeLog, envelope.TypeMetric, envelope.TypeTrace, envelope.TypeTrace,
		envelope.TypeError, envelope.TypeLog, envelope.TypeState, envelope.TypeState,
	}
	sent := recorder.sent()
	if len(sent) != len(wantTypes) {
		t.Fatalf("sent %d envelopes, want %d", len(sent), len(wantTypes))
	}
	for i, want := range wantTypes {
		if sent[i].Type != want {
			t.Errorf("envelope %d type = %s, want %s", i, sent[i].Type, want)
		}
	}
	if !IsEnabled() || IsConnected() {
		t.Errorf("IsEnabled = %v, IsConnected = %v", IsEnabled(), IsConnected())
	}
}

func TestGetStateReadsDefaultStore(t *testing.T) {
	initGlobal(t)
	UpdateState("prefs", map[string]any{"theme": "dark"})

	prefs, ok := GetState()["prefs"].(map[string]any)
	if !ok || prefs["theme"] != "dark" {
		t.Errorf("GetState = %v", GetState())
	}
}

func TestInitDestroysPreviousInstance(t *testing.T) {
	first := initGlobal(t)
	previous := Default()
	second := initGlobal(t)

	if Default() == previous {
		t.Fatal("Init kept the previous instance")
	}
	previous.Log("late", nil)
	Log("current", nil)

	if n := len(first.sent()); n != 0 {
		t.Errorf("destroyed instance sent %d envelopes", n)
	}
	if n := len(second.sent()); n != 1 {
		t.Errorf("current instance sent %d envelopes, want 1", n)
	}
}
