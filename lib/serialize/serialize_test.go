// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package serialize

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type node struct {
	Name string `json:"name"`
	Next *node  `json:"next,omitempty"`
}

type point struct {
	X int `json:"x"`
}

type shape struct {
	Origin point  `json:"origin"`
	Anchor *point `json:"anchor"`
}

type panickingText struct{}

func (panickingText) MarshalText() ([]byte, error) { panic("accessor exploded") }

func TestSafeStringifySelfReference(t *testing.T) {
	root := &node{Name: "root"}
	root.Next = root

	result := SafeStringify(root, Options{})
	if !strings.Contains(result, MarkerCircular) {
		t.Fatalf("result %q does not contain %q", result, MarkerCircular)
	}
}

func TestSanitizeSelfReferentialMap(t *testing.T) {
	value := map[string]any{"id": 1}
	value["self"] = value

	tree := Sanitize(value, Options{}).(map[string]any)
	if tree["self"] != MarkerCircular {
		t.Fatalf("self = %v, want circular marker", tree["self"])
	}
	if tree["id"] != int64(1) {
		t.Fatalf("id = %#v", tree["id"])
	}
}

func TestSanitizeSharedSiblingsAreNotCircular(t *testing.T) {
	shared := &node{Name: "shared"}
	value := map[string]any{"left": shared, "right": shared}

	tree := Sanitize(value, Options{}).(map[string]any)
	for _, side := range []string{"left", "right"} {
		child, ok := tree[side].(map[string]any)
		if !ok {
			t.Fatalf("%s = %#v, want object", side, tree[side])
		}
		if child["name"] != "shared" {
			t.Fatalf("%s.name = %v", side, child["name"])
		}
	}

	// Anchor points at Origin, which shares the parent's address.
	outer := &shape{Origin: point{X: 7}}
	outer.Anchor = &outer.Origin
	if got, want := SafeStringify(outer, Options{}), `{"anchor":{"x":7},"origin":{"x":7}}`; got != want {
		t.Fatalf("SafeStringify = %s, want %s", got, want)
	}
}

func TestSanitizeMaxDepth(t *testing.T) {
	value := map[string]any{"a": map[string]any{"b": map[string]any{"c": map[string]any{"d": 1}}}}

	tree := Sanitize(value, Options{MaxDepth: 2}).(map[string]any)
	a := tree["a"].(map[string]any)
	b := a["b"].(map[string]any)
	if b["c"] != MarkerMaxDepth {
		t.Fatalf("a.b.c = %#v, want depth marker", b["c"])
	}
}

func TestSanitizeFunctionsOmittedFromObjectsNullInArrays(t *testing.T) {
	value := map[string]any{
		"handler": func() {},
		"events":  make(chan int),
		"list":    []any{1, func() {}, "x"},
		"kept":    true,
	}

	tree := Sanitize(value, Options{}).(map[string]any)
	if _, ok := tree["handler"]; ok {
		t.Error("function kept in object")
	}
	if _, ok := tree["events"]; ok {
		t.Error("channel kept in object")
	}
	list := tree["list"].([]any)
	if len(list) != 3 || list[1] != nil || list[2] != "x" {
		t.Errorf("list = %#v, want [1 nil x]", list)
	}
	if tree["kept"] != true {
		t.Errorf("kept = %v", tree["kept"])
	}
}

func TestSanitizeIsolatesPanickingElements(t *testing.T) {
	value := map[string]any{
		"bad":  panickingText{},
		"good": "fine",
		"list": []any{"first", panickingText{}, "third"},
	}

	tree := Sanitize(value, Options{}).(map[string]any)
	bad, _ := tree["bad"].(string)
	if !strings.HasPrefix(bad, "[Serialization Error: ") || !strings.Contains(bad, "accessor exploded") {
		t.Errorf("bad = %q", bad)
	}
	if tree["good"] != "fine" {
		t.Errorf("good = %v", tree["good"])
	}
	list := tree["list"].([]any)
	if list[0] != "first" || list[2] != "third" {
		t.Errorf("list = %#v", list)
	}
	if marker, _ := list[1].(string); !strings.HasPrefix(marker, "[Serialization Error: ") {
		t.Errorf("list[1] = %#v", list[1])
	}
}

func TestSanitizeStructTags(t *testing.T) {
	type embedded struct {
		Region string
	}
	type sample struct {
		embedded
		Visible string    `json:"visible"`
		Hidden  string    `json:"-"`
		Empty   string    `json:"empty,omitempty"`
		At      time.Time `json:"at"`
		Err     error     `json:"err"`
		private int
	}
	value := sample{
		embedded: embedded{Region: "eu"},
		Visible:  "yes",
		Hidden:   "no",
		At:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Err:      errors.New("boom"),
		private:  7,
	}

	tree := Sanitize(value, Options{}).(map[string]any)
	if tree["visible"] != "yes" {
		t.Errorf("visible = %v", tree["visible"])
	}
	if tree["Region"] != "eu" {
		t.Errorf("embedded field not flattened: %v", tree)
	}
	for _, absent := range []string{"Hidden", "-", "empty", "private"} {
		if _, ok := tree[absent]; ok {
			t.Errorf("%q should be absent: %v", absent, tree)
		}
	}
	if tree["at"] != "2026-03-01T12:00:00Z" {
		t.Errorf("at = %v", tree["at"])
	}
	if tree["err"] != "boom" {
		t.Errorf("err = %v", tree["err"])
	}
}

func TestSafeStringifySizeLimitReplacesWholeOutput(t *testing.T) {
	value := map[string]any{"blob": strings.Repeat("x", 200)}

	if got := SafeStringify(value, Options{MaxSize: 100}); got != MarkerSizeLimit {
		t.Fatalf("got %q, want exactly %q", got, MarkerSizeLimit)
	}
	if got := SafeStringify(map[string]any{"a": 1}, Options{MaxSize: 100}); got != `{"a":1}` {
		t.Fatalf("small value = %q", got)
	}
}

func TestSafeStringifyDefaults(t *testing.T) {
	value := map[string]any{"blob": strings.Repeat("y", DefaultMaxSize)}
	if got := SafeStringify(value, Options{MaxSize: -5}); got != MarkerSizeLimit {
		t.Fatalf("negative MaxSize did not fall back to the default limit: %d bytes", len(got))
	}
}

func TestSanitizeBytesAndFloats(t *testing.T) {
	tree := Sanitize(map[string]any{
		"text":   []byte("hello"),
		"binary": []byte{0xff, 0xfe},
		"nan":    nanValue(),
	}, Options{}).(map[string]any)

	if tree["text"] != "hello" {
		t.Errorf("text = %#v", tree["text"])
	}
	if tree["binary"] != "//4=" {
		t.Errorf("binary = %#v", tree["binary"])
	}
	if tree["nan"] != nil {
		t.Errorf("nan = %#v, want nil", tree["nan"])
	}
}

func nanValue() float64 {
	zero := 0.0
	return zero / zero
}

func TestParse(t *testing.T) {
	value, err := Parse(`{"a":1,"b":[1.5,"x"]}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tree := value.(map[string]any)
	if tree["a"] != int64(1) {
		t.Errorf("a = %#v", tree["a"])
	}
	list := tree["b"].([]any)
	if list[0] != 1.5 || list[1] != "x" {
		t.Errorf("b = %#v", list)
	}

	if _, err := Parse(`{"a":`); err == nil {
		t.Error("Parse accepted truncated input")
	}
	if _, err := Parse(`{} {}`); err == nil {
		t.Error("Parse accepted trailing data")
	}
}

func TestSafeParseMalformed(t *testing.T) {
	result := SafeParse("not json").(map[string]any)
	if result["error"] != "Parse Error" {
		t.Fatalf("result = %v", result)
	}
	if message, _ := result["message"].(string); message == "" {
		t.Fatalf("missing message: %v", result)
	}
}
