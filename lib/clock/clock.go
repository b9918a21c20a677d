// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source for the inspector pipeline. The batch
// timer, trace durations, network durations, and reconnect backoff
// all read time through a Clock so that tests can drive them with a
// FakeClock instead of waiting on the wall clock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives once d has elapsed. A
	// non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc calls f once d has elapsed and returns a Timer that
	// can cancel or re-arm the call. The real clock runs f on its
	// own goroutine; the fake clock runs f inside Advance.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

// Stop cancels the pending call. Returns false if the call already
// ran or was already stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Reset re-arms the timer to run after d, whether or not it has
// already fired. Returns true if the timer was still pending.
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }
