// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package serialize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Parse decodes JSON text into the same tree shape Sanitize
// produces. Integers that fit in int64 stay integers.
func Parse(text string) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(text)))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("parsing JSON: trailing data after value")
	}
	return normalizeNumbers(value), nil
}

// SafeParse is Parse for callers that want a value unconditionally:
// malformed input yields {"error": "Parse Error", "message": ...}.
func SafeParse(text string) any {
	value, err := Parse(text)
	if err != nil {
		return map[string]any{"error": "Parse Error", "message": err.Error()}
	}
	return value
}

func normalizeNumbers(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if integer, err := typed.Int64(); err == nil {
			return integer
		}
		float, _ := typed.Float64()
		return float
	case []any:
		for i := range typed {
			typed[i] = normalizeNumbers(typed[i])
		}
	case map[string]any:
		for key := range typed {
			typed[key] = normalizeNumbers(typed[key])
		}
	}
	return value
}
