// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package serialize

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

// MarkerRedacted replaces the value of a redacted header.
const MarkerRedacted = "[REDACTED]"

// DefaultTruncateLength is the TruncateString limit for max <= 0.
const DefaultTruncateLength = 1000

const ellipsis = "..."

// RedactHeaders returns a copy of headers in which every key matching
// an entry of redact, ignoring case, has its value replaced by
// MarkerRedacted. Keys keep their original spelling.
func RedactHeaders(headers map[string]string, redact []string) map[string]string {
	if headers == nil {
		return nil
	}
	sensitive := make(map[string]struct{}, len(redact))
	for _, name := range redact {
		sensitive[strings.ToLower(name)] = struct{}{}
	}
	out := make(map[string]string, len(headers))
	for key, value := range headers {
		if _, ok := sensitive[strings.ToLower(key)]; ok {
			value = MarkerRedacted
		}
		out[key] = value
	}
	return out
}

// FlattenHeader converts an http.Header to a flat map with
// lower-cased keys and multiple values joined by ", ".
func FlattenHeader(header http.Header) map[string]string {
	if len(header) == 0 {
		return nil
	}
	out := make(map[string]string, len(header))
	for key, values := range header {
		out[strings.ToLower(key)] = strings.Join(values, ", ")
	}
	return out
}

// RedactHTTPHeader flattens header and redacts it.
func RedactHTTPHeader(header http.Header, redact []string) map[string]string {
	return RedactHeaders(FlattenHeader(header), redact)
}

// TruncateString shortens s so that, ellipsis included, it is at most
// max bytes. Strings already within max are returned unchanged. The
// cut falls on a rune boundary.
func TruncateString(s string, max int) string {
	if max <= 0 {
		max = DefaultTruncateLength
	}
	if len(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return ellipsis[:max]
	}
	cut := max - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
