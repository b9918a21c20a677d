// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statestore

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/bureau-foundation/inspector/lib/serialize"
)

// ChangeKind classifies a value for diffing.
type ChangeKind string

const (
	KindNull   ChangeKind = "null"
	KindBool   ChangeKind = "bool"
	KindNumber ChangeKind = "number"
	KindString ChangeKind = "string"
	KindArray  ChangeKind = "array"
	KindObject ChangeKind = "object"
)

// ChangeOp says how a path changed.
type ChangeOp string

const (
	OpModified ChangeOp = "modified"
	OpAdded    ChangeOp = "added"
	OpRemoved  ChangeOp = "removed"
)

// Change is one difference at a path. A modified value sets Old and
// New; a key present on one side only sets Added or Removed. Kind is
// the kind of the value now at the path, or of the removed value.
type Change struct {
	Op      ChangeOp   `json:"op"`
	Kind    ChangeKind `json:"kind,omitempty"`
	Old     any        `json:"old,omitempty"`
	New     any        `json:"new,omitempty"`
	Added   any        `json:"added,omitempty"`
	Removed any        `json:"removed,omitempty"`
}

// Changes maps a path to its change. Object keys join with ".",
// indices render as "[i]", and a change to the value itself is at
// RootPath.
type Changes map[string]Change

// RootPath names a change to the compared value itself.
const RootPath = "root"

// Paths returns the changed paths in sorted order.
func (c Changes) Paths() []string {
	paths := make([]string, 0, len(c))
	for path := range c {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Wire converts changes to the generic tree carried in a state
// envelope.
func (c Changes) Wire() map[string]any {
	if len(c) == 0 {
		return nil
	}
	out := make(map[string]any, len(c))
	for path, change := range c {
		entry := make(map[string]any, 2)
		switch change.Op {
		case OpAdded:
			entry["added"] = change.Added
		case OpRemoved:
			entry["removed"] = change.Removed
		default:
			entry["old"] = change.Old
			entry["new"] = change.New
		}
		out[path] = entry
	}
	return out
}

// Diff compares two trees of the shape the serializer produces: nil,
// bools, numbers, strings, []any, and map[string]any. Other slice and
// map types are compared through reflection the same way.
func Diff(previous, next any) Changes {
	changes := Changes{}
	diffValue(previous, next, "", changes)
	return changes
}

func diffValue(previous, next any, path string, changes Changes) {
	if sameReference(previous, next) {
		return
	}

	previousKind, nextKind := kindOf(previous), kindOf(next)
	if previousKind != nextKind {
		changes[pathOrRoot(path)] = Change{Op: OpModified, Kind: nextKind, Old: previous, New: next}
		return
	}

	switch previousKind {
	case KindNull:
		return
	case KindNumber:
		if !numbersEqual(previous, next) {
			changes[pathOrRoot(path)] = Change{Op: OpModified, Kind: KindNumber, Old: previous, New: next}
		}
	case KindBool, KindString:
		if previous != next {
			changes[pathOrRoot(path)] = Change{Op: OpModified, Kind: previousKind, Old: previous, New: next}
		}
	case KindArray:
		previousList, nextList := asList(previous), asList(next)
		if len(previousList) != len(nextList) {
			changes[pathOrRoot(path)] = Change{Op: OpModified, Kind: KindArray, Old: previous, New: next}
			return
		}
		for i := range previousList {
			diffValue(previousList[i], nextList[i], path+"["+strconv.Itoa(i)+"]", changes)
		}
	case KindObject:
		previousMap, nextMap := asObject(previous), asObject(next)
		for key, value := range previousMap {
			child := joinKey(path, key)
			nextValue, ok := nextMap[key]
			if !ok {
				changes[child] = Change{Op: OpRemoved, Kind: kindOf(value), Removed: value}
				continue
			}
			diffValue(value, nextValue, child, changes)
		}
		for key, value := range nextMap {
			if _, ok := previousMap[key]; !ok {
				changes[joinKey(path, key)] = Change{Op: OpAdded, Kind: kindOf(value), Added: value}
			}
		}
	}
}

func pathOrRoot(path string) string {
	if path == "" {
		return RootPath
	}
	return path
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func kindOf(value any) ChangeKind {
	if value == nil {
		return KindNull
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.String:
		return KindString
	case reflect.Slice, reflect.Array:
		return KindArray
	case reflect.Map, reflect.Struct:
		return KindObject
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return KindNull
		}
		return kindOf(v.Elem().Interface())
	}
	return KindObject
}

// sameReference reports whether both sides are the same map or slice
// header, which makes a deep walk unnecessary.
func sameReference(previous, next any) bool {
	a, b := reflect.ValueOf(previous), reflect.ValueOf(next)
	if !a.IsValid() || !b.IsValid() || a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case reflect.Map, reflect.Pointer:
		return a.Pointer() == b.Pointer() && !a.IsNil()
	case reflect.Slice:
		return a.Len() == b.Len() && a.Len() > 0 && a.Pointer() == b.Pointer()
	}
	return false
}

func numbersEqual(previous, next any) bool {
	a, b := reflect.ValueOf(previous), reflect.ValueOf(next)
	for a.Kind() == reflect.Pointer || a.Kind() == reflect.Interface {
		a = a.Elem()
	}
	for b.Kind() == reflect.Pointer || b.Kind() == reflect.Interface {
		b = b.Elem()
	}
	if a.CanInt() && b.CanInt() {
		return a.Int() == b.Int()
	}
	if a.CanUint() && b.CanUint() {
		return a.Uint() == b.Uint()
	}
	if a.CanInt() && b.CanUint() {
		return a.Int() >= 0 && uint64(a.Int()) == b.Uint()
	}
	if a.CanUint() && b.CanInt() {
		return b.Int() >= 0 && a.Uint() == uint64(b.Int())
	}
	return toFloat(a) == toFloat(b)
}

func toFloat(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	case v.CanFloat():
		return v.Float()
	}
	return 0
}

func asList(value any) []any {
	if list, ok := value.([]any); ok {
		return list
	}
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	list := make([]any, v.Len())
	for i := range list {
		list[i] = v.Index(i).Interface()
	}
	return list
}

func asObject(value any) map[string]any {
	if object, ok := value.(map[string]any); ok {
		return object
	}
	// Structs and typed maps go through the sanitizer so field names
	// follow the same json-tag rules as the wire form.
	if object, ok := serialize.Sanitize(value, serialize.Options{}).(map[string]any); ok {
		return object
	}
	return nil
}
