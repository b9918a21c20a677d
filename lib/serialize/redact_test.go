// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package serialize

import (
	"net/http"
	"strings"
	"testing"
)

func TestRedactHeadersCaseInsensitive(t *testing.T) {
	headers := map[string]string{
		"Authorization": "Bearer x",
		"COOKIE":        "session=1",
		"Accept":        "application/json",
	}

	redacted := RedactHeaders(headers, []string{"authorization", "Cookie"})

	if redacted["Authorization"] != MarkerRedacted {
		t.Errorf("Authorization = %q", redacted["Authorization"])
	}
	if redacted["COOKIE"] != MarkerRedacted {
		t.Errorf("COOKIE = %q", redacted["COOKIE"])
	}
	if redacted["Accept"] != "application/json" {
		t.Errorf("Accept = %q", redacted["Accept"])
	}
	if len(redacted) != len(headers) {
		t.Errorf("keys changed: %v", redacted)
	}
	if headers["Authorization"] != "Bearer x" {
		t.Error("RedactHeaders mutated its input")
	}
}

func TestRedactHTTPHeader(t *testing.T) {
	header := http.Header{}
	header.Set("X-Api-Key", "secret")
	header.Add("Accept", "text/plain")
	header.Add("Accept", "application/json")

	redacted := RedactHTTPHeader(header, []string{"x-api-key"})

	if redacted["x-api-key"] != MarkerRedacted {
		t.Errorf("x-api-key = %q", redacted["x-api-key"])
	}
	if redacted["accept"] != "text/plain, application/json" {
		t.Errorf("accept = %q", redacted["accept"])
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"within limit", "hello", 10, "hello"},
		{"exact limit", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"tiny limit", "hello", 2, ".."},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := TruncateString(test.input, test.max); got != test.want {
				t.Fatalf("TruncateString(%q, %d) = %q, want %q", test.input, test.max, got, test.want)
			}
		})
	}
}

func TestTruncateStringTotalLengthEqualsMax(t *testing.T) {
	got := TruncateString(strings.Repeat("a", 5000), 0)
	if len(got) != DefaultTruncateLength {
		t.Fatalf("len = %d, want %d", len(got), DefaultTruncateLength)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("missing ellipsis: %q", got[len(got)-5:])
	}
}

func TestTruncateStringRuneBoundary(t *testing.T) {
	got := TruncateString("ааааа", 6) // five two-byte runes
	if got != "а..." {
		t.Fatalf("got %q", got)
	}
}
