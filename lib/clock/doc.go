// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the injectable time source used across the
// inspector. Production code takes [Real]; tests take [Fake] and move
// time explicitly:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	buffer := buffer.New(flush, 500*time.Millisecond, 50, fake, nil)
//	fake.Advance(500 * time.Millisecond) // flush runs before Advance returns
//
// Goroutines that register timers asynchronously race with the test's
// Advance call. [FakeClock.WaitForTimers] closes that race by blocking
// until the expected number of waiters exist.
package clock
