// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type sampleRecord struct {
	Method   string `json:"method"`
	Status   int    `json:"status,omitempty"`
	Duration int64  `json:"duration"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleRecord{Method: "GET", Status: 200, Duration: 150}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Fatalf("roundtrip = %+v, want %+v", decoded, original)
	}
}

func TestMarshalMapKeyOrderIsStable(t *testing.T) {
	first, err := Marshal(map[string]any{"b": 2, "a": 1, "c": 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(map[string]any{"c": 3, "a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("encodings differ: %x vs %x", first, second)
	}
}

func TestUnmarshalUntypedMapsUseStringKeys(t *testing.T) {
	data, err := Marshal(map[string]any{"outer": map[string]any{"inner": "value"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded any
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	outer, ok := decoded.(map[string]any)
	if !ok {
		t.Fatalf("decoded type = %T, want map[string]any", decoded)
	}
	inner, ok := outer["outer"].(map[string]any)
	if !ok {
		t.Fatalf("nested type = %T, want map[string]any", outer["outer"])
	}
	if inner["inner"] != "value" {
		t.Fatalf("inner = %v", inner["inner"])
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	records := []sampleRecord{
		{Method: "GET", Status: 200, Duration: 10},
		{Method: "POST", Status: 201, Duration: 20},
		{Method: "DELETE", Duration: 30},
	}

	var stream bytes.Buffer
	encoder := NewEncoder(&stream)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&stream)
	for i, want := range records {
		var got sampleRecord
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode[%d]: %v", i, err)
		}
		if got != want {
			t.Fatalf("record %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestRawMessageDefersDecoding(t *testing.T) {
	type frame struct {
		Method string     `cbor:"method"`
		Data   RawMessage `cbor:"data"`
	}
	data, err := Marshal(map[string]any{"method": "message", "data": sampleRecord{Method: "PUT"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded frame
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal frame: %v", err)
	}
	if decoded.Method != "message" {
		t.Fatalf("method = %q", decoded.Method)
	}
	var record sampleRecord
	if err := Unmarshal(decoded.Data, &record); err != nil {
		t.Fatalf("Unmarshal data: %v", err)
	}
	if record.Method != "PUT" {
		t.Fatalf("record.Method = %q", record.Method)
	}
}
