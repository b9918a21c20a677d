// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package serialize

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"
)

// Markers substituted for values that cannot be represented.
const (
	MarkerMaxDepth  = "[Max Depth Reached]"
	MarkerCircular  = "[Circular Reference]"
	MarkerSizeLimit = "[Size Limit Reached]"
)

// Defaults applied to zero or negative Options fields.
const (
	DefaultMaxDepth = 10
	DefaultMaxSize  = 10240
)

// Options bounds a serialization.
type Options struct {
	// MaxDepth is the deepest nesting level serialized. The root is
	// depth 0; containers below MaxDepth are replaced by
	// MarkerMaxDepth.
	MaxDepth int

	// MaxSize is the longest encoded output, in bytes, SafeStringify
	// returns before substituting MarkerSizeLimit.
	MaxSize int
}

func (o Options) normalized() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxSize <= 0 {
		o.MaxSize = DefaultMaxSize
	}
	return o
}

// errorMarker formats the inline marker for a value whose conversion
// panicked.
func errorMarker(recovered any) string {
	return fmt.Sprintf("[Serialization Error: %v]", recovered)
}

// Sanitize converts value to a JSON-safe tree bounded by opts.
func Sanitize(value any, opts Options) (result any) {
	opts = opts.normalized()
	defer func() {
		if recovered := recover(); recovered != nil {
			result = errorMarker(recovered)
		}
	}()

	w := walker{maxDepth: opts.MaxDepth}
	converted, keep := w.walk(reflect.ValueOf(value), 0)
	if !keep {
		return nil
	}
	return converted
}

// SafeStringify sanitizes value and encodes it as JSON. The result is
// always valid JSON or one of the package markers.
func SafeStringify(value any, opts Options) string {
	opts = opts.normalized()
	encoded, err := json.Marshal(Sanitize(value, opts))
	if err != nil {
		return errorMarker(err)
	}
	if len(encoded) > opts.MaxSize {
		return MarkerSizeLimit
	}
	return string(encoded)
}

// identity names a reference-typed value for cycle detection. The
// type separates a pointer to a struct from a pointer to its first
// field, which share an address. Slices include their length so a
// prefix of a slice is distinct from the whole.
type identity struct {
	typ     reflect.Type
	pointer uintptr
	length  int
}

type walker struct {
	maxDepth int
	visiting []identity
}

var (
	timeType          = reflect.TypeOf(time.Time{})
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	errorType         = reflect.TypeOf((*error)(nil)).Elem()
)

// walk converts v. keep is false for values that are omitted from
// maps and become null inside arrays.
func (w *walker) walk(v reflect.Value, depth int) (any, bool) {
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, true
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, true
	}

	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, false
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return nil, true
		}
	}

	if converted, ok := w.special(v); ok {
		return converted, true
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, true
		}
		return f, true
	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(v.Complex()), true
	case reflect.String:
		return v.String(), true
	}

	if depth > w.maxDepth {
		return MarkerMaxDepth, true
	}

	if v.Kind() == reflect.Pointer || v.Kind() == reflect.Map || v.Kind() == reflect.Slice {
		id := identity{typ: v.Type(), pointer: v.Pointer()}
		if v.Kind() == reflect.Slice {
			id.length = v.Len()
		}
		for _, ancestor := range w.visiting {
			if ancestor == id {
				return MarkerCircular, true
			}
		}
		w.visiting = append(w.visiting, id)
		defer func() { w.visiting = w.visiting[:len(w.visiting)-1] }()
	}

	switch v.Kind() {
	case reflect.Pointer:
		// A pointer is transparent: it shares its target's depth.
		return w.walk(v.Elem(), depth)
	case reflect.Slice, reflect.Array:
		return w.walkList(v, depth), true
	case reflect.Map:
		return w.walkMap(v, depth), true
	case reflect.Struct:
		return w.walkStruct(v, depth), true
	}
	return nil, false
}

// special handles types with a canonical string form. Checked before
// the kind switch so that named string and integer types implementing
// TextMarshaler encode by name.
func (w *walker) special(v reflect.Value) (any, bool) {
	t := v.Type()
	switch {
	case t == timeType && v.CanInterface():
		return v.Interface().(time.Time).Format(time.RFC3339Nano), true
	case t.Implements(errorType) && v.CanInterface():
		return v.Interface().(error).Error(), true
	case t.Implements(textMarshalerType) && v.CanInterface():
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return errorMarker(err), true
		}
		return string(text), true
	case v.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8:
		raw := v.Bytes()
		if utf8.Valid(raw) {
			return string(raw), true
		}
		return base64.StdEncoding.EncodeToString(raw), true
	}
	return nil, false
}

func (w *walker) walkList(v reflect.Value, depth int) []any {
	length := v.Len()
	out := make([]any, length)
	for i := 0; i < length; i++ {
		out[i] = w.element(func() (any, bool) { return w.walk(v.Index(i), depth+1) })
	}
	return out
}

func (w *walker) walkMap(v reflect.Value, depth int) map[string]any {
	out := make(map[string]any, v.Len())
	iterator := v.MapRange()
	for iterator.Next() {
		key := mapKey(iterator.Key())
		value := iterator.Value()
		converted, keep := w.member(func() (any, bool) { return w.walk(value, depth+1) })
		if keep {
			out[key] = converted
		}
	}
	return out
}

func (w *walker) walkStruct(v reflect.Value, depth int) map[string]any {
	out := make(map[string]any, v.NumField())
	w.collectFields(v, depth, out)
	return out
}

// collectFields adds v's exported fields to out, flattening untagged
// embedded structs the way encoding/json does.
func (w *walker) collectFields(v reflect.Value, depth int, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, omitEmpty, skip := fieldName(field)
		if skip {
			continue
		}
		fieldValue := v.Field(i)
		if field.Anonymous && name == field.Name && fieldValue.Kind() == reflect.Struct {
			w.collectFields(fieldValue, depth, out)
			continue
		}
		if !field.IsExported() {
			continue
		}
		if omitEmpty && isEmpty(fieldValue) {
			continue
		}
		converted, keep := w.member(func() (any, bool) { return w.walk(fieldValue, depth+1) })
		if keep {
			out[name] = converted
		}
	}
}

// element converts one array element. Omitted values and panics
// keep their index: null and an error marker respectively.
func (w *walker) element(convert func() (any, bool)) any {
	converted, keep := w.member(convert)
	if !keep {
		return nil
	}
	return converted
}

// member runs one child conversion, turning a panic into an inline
// marker. The visiting stack is restored to its length on entry so a
// panic deep in the child cannot leave stale ancestors behind.
func (w *walker) member(convert func() (any, bool)) (result any, keep bool) {
	stackDepth := len(w.visiting)
	defer func() {
		if recovered := recover(); recovered != nil {
			w.visiting = w.visiting[:stackDepth]
			result, keep = errorMarker(recovered), true
		}
	}()
	return convert()
}

func fieldName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, options, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	for _, option := range strings.Split(options, ",") {
		if option == "omitempty" {
			omitEmpty = true
		}
	}
	if !field.IsExported() && !field.Anonymous {
		return "", false, true
	}
	return name, omitEmpty, false
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

func mapKey(key reflect.Value) string {
	if key.Kind() == reflect.String {
		return key.String()
	}
	if key.Type().Implements(textMarshalerType) && key.CanInterface() {
		if text, err := key.Interface().(encoding.TextMarshaler).MarshalText(); err == nil {
			return string(text)
		}
	}
	if key.CanInterface() {
		return fmt.Sprint(key.Interface())
	}
	return key.String()
}
