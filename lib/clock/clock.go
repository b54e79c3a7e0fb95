// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the parts of the time package that hostmcp uses.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTimer returns a Timer that delivers once on C after d. A
	// non-positive d delivers immediately.
	NewTimer(d time.Duration) *Timer

	// NewTicker returns a Ticker that delivers on C every d. Panics
	// if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a one-shot event. Stop it when the wait ends early so the
// clock can release it.
type Timer struct {
	// C receives the fire time. Buffered with capacity 1.
	C <-chan time.Time

	stopFunc func() bool
}

// Stop prevents the Timer from firing. Returns false if it already
// fired or was already stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Ticker is a periodic event. If the reader falls behind, ticks are
// dropped rather than queued.
type Ticker struct {
	// C receives ticks. Buffered with capacity 1.
	C <-chan time.Time

	stopFunc func()
}

// Stop turns off the ticker. C is not closed.
func (t *Ticker) Stop() { t.stopFunc() }
