// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statestore

import (
	"reflect"
	"sync"
	"testing"

	"github.com/bureau-foundation/inspector/lib/envelope"
)

type emitted struct {
	mu      sync.Mutex
	records []envelope.StateData
}

func (e *emitted) emit(record envelope.StateData) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = append(e.records, record)
}

func (e *emitted) last(t *testing.T) envelope.StateData {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.records) == 0 {
		t.Fatal("nothing emitted")
	}
	return e.records[len(e.records)-1]
}

func TestUpdateShallowMerges(t *testing.T) {
	records := &emitted{}
	store := NewStore(records.emit)

	store.Update("user", map[string]any{"name": "Ada", "role": "admin"})
	store.Update("user", map[string]any{"role": "owner", "active": true})

	record := records.last(t)
	if record.Section != "user" || record.Action != envelope.StateUpdate {
		t.Fatalf("record = %+v", record)
	}
	want := map[string]any{"name": "Ada", "role": "owner", "active": true}
	if !reflect.DeepEqual(record.Data, want) {
		t.Fatalf("Data = %v, want %v", record.Data, want)
	}
	if record.Checksum != Checksum(want) {
		t.Fatalf("Checksum = %s, want checksum of merged section", record.Checksum)
	}

	section, ok := store.GetSection("user")
	if !ok || !reflect.DeepEqual(section, want) {
		t.Fatalf("GetSection = %v, %v", section, ok)
	}
}

func TestEmittedDataIsACopy(t *testing.T) {
	records := &emitted{}
	store := NewStore(records.emit)
	store.Update("cart", map[string]any{"items": 1})

	data := records.last(t).Data.(map[string]any)
	data["items"] = 99

	section, _ := store.GetSection("cart")
	if section["items"] != 1 {
		t.Fatalf("mutating emitted data changed the store: %v", section)
	}
	section["items"] = 42
	again, _ := store.GetSection("cart")
	if again["items"] != 1 {
		t.Fatal("GetSection returned the live map")
	}
}

func TestRemoveKeysAndSection(t *testing.T) {
	records := &emitted{}
	store := NewStore(records.emit)
	store.Update("prefs", map[string]any{"theme": "dark", "lang": "en", "tz": "UTC"})

	store.Remove("prefs", "theme", "tz")
	record := records.last(t)
	if record.Action != envelope.StateRemove || !reflect.DeepEqual(record.Keys, []string{"theme", "tz"}) {
		t.Fatalf("record = %+v", record)
	}
	section, _ := store.GetSection("prefs")
	if !reflect.DeepEqual(section, map[string]any{"lang": "en"}) {
		t.Fatalf("section = %v", section)
	}

	store.Remove("prefs")
	record = records.last(t)
	if record.Keys != nil {
		t.Fatalf("whole-section removal carried keys %v", record.Keys)
	}
	if _, ok := store.GetSection("prefs"); ok {
		t.Fatal("section survived removal")
	}
}

func TestClearDoesNotEmit(t *testing.T) {
	records := &emitted{}
	store := NewStore(records.emit)
	store.Update("a", map[string]any{"x": 1})
	store.Update("b", map[string]any{"y": 2})

	store.Clear()
	if len(records.records) != 2 {
		t.Fatalf("Clear emitted; %d records", len(records.records))
	}
	if len(store.GetState()) != 0 {
		t.Fatalf("GetState after Clear = %v", store.GetState())
	}
}

func TestSizeTracksSerializedState(t *testing.T) {
	store := NewStore(nil)
	if got := store.Size(); got != len("{}") {
		t.Fatalf("empty Size = %d", got)
	}
	store.Update("s", map[string]any{"k": "v"})
	if got, want := store.Size(), len(`{"s":{"k":"v"}}`); got != want {
		t.Fatalf("Size = %d, want %d", got, want)
	}
}

func TestChecksumIgnoresMapOrderAndNumericType(t *testing.T) {
	a := map[string]any{"b": 2, "a": []any{1, "x"}}
	b := map[string]any{"a": []any{int64(1), "x"}, "b": int64(2)}
	if Checksum(a) != Checksum(b) {
		t.Fatal("equal trees produced different checksums")
	}
	if Checksum(a) == Checksum(map[string]any{"b": 3}) {
		t.Fatal("different trees produced equal checksums")
	}
	if len(Checksum(nil)) != 64 {
		t.Fatalf("checksum length = %d, want 64 hex chars", len(Checksum(nil)))
	}
}
