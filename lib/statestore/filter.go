// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statestore

import "slices"

// Filter prunes map keys from sanitized trees. A key in Blacklist is
// always dropped; when Whitelist is non-empty only its keys survive.
// Both apply at every nesting level, including maps inside arrays.
type Filter struct {
	Whitelist []string
	Blacklist []string
}

// IsZero reports whether the filter keeps everything.
func (f Filter) IsZero() bool {
	return len(f.Whitelist) == 0 && len(f.Blacklist) == 0
}

// Apply returns a filtered copy of value. Values other than
// map[string]any and []any are returned unchanged.
func (f Filter) Apply(value any) any {
	if f.IsZero() {
		return value
	}
	return f.apply(value)
}

func (f Filter) apply(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, child := range typed {
			if !f.keep(key) {
				continue
			}
			out[key] = f.apply(child)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, child := range typed {
			out[i] = f.apply(child)
		}
		return out
	}
	return value
}

func (f Filter) keep(key string) bool {
	if slices.Contains(f.Blacklist, key) {
		return false
	}
	if len(f.Whitelist) > 0 && !slices.Contains(f.Whitelist, key) {
		return false
	}
	return true
}
