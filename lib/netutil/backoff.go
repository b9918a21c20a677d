// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import "time"

// Backoff yields doubling delays between Initial and Max. The zero
// value is not usable; set both bounds.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	current time.Duration
}

// Next returns the delay to wait before the next attempt.
func (b *Backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.Initial
		return b.current
	}
	b.current *= 2
	if b.current > b.Max {
		b.current = b.Max
	}
	return b.current
}

// Reset starts the sequence over from Initial.
func (b *Backoff) Reset() {
	b.current = 0
}
