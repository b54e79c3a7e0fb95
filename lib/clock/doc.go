// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the time source for every component that waits.
//
// The command bridge bounds each call with a timer and the executor
// loop activates on a ticker. Both take a [Clock] so tests can drive
// timeouts and ticks without sleeping: production passes [Real],
// tests pass [Fake] and step time forward with Advance.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { result <- bridge.Submit(ctx, id, "get_cursor", nil, 30*time.Second) }()
//	c.WaitForTimers(1)          // Submit has armed its timeout
//	c.Advance(30 * time.Second) // Submit returns a timeout failure
package clock
