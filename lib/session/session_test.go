// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/hostmcp/lib/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNoSessionInitially(t *testing.T) {
	manager := NewManager(clock.Fake(epoch))
	if id, ok := manager.Current(); ok {
		t.Errorf("Current() = %q, true; want no session", id)
	}
	if manager.End() {
		t.Error("End() with no session = true, want false")
	}
}

func TestBeginReplacesAndEndClears(t *testing.T) {
	fake := clock.Fake(epoch)
	manager := NewManager(fake)

	first := manager.Begin()
	if _, err := uuid.Parse(first); err != nil {
		t.Errorf("Begin() = %q, not a uuid: %v", first, err)
	}

	fake.Advance(time.Minute)
	second := manager.Begin()
	if second == "" || second == first {
		t.Fatalf("second Begin() = %q, want a fresh id distinct from %q", second, first)
	}
	if current, ok := manager.Current(); !ok || current != second {
		t.Errorf("Current() = %q, %v; want %q", current, ok, second)
	}
	snapshot, ok := manager.Snapshot()
	if !ok || !snapshot.Started.Equal(epoch.Add(time.Minute)) {
		t.Errorf("Snapshot() = %+v, %v; want start at epoch+1m", snapshot, ok)
	}

	if !manager.End() {
		t.Error("End() = false with an active session")
	}
	if _, ok := manager.Current(); ok {
		t.Error("Current() reports a session after End()")
	}

	third := manager.Begin()
	if third == first || third == second {
		t.Errorf("Begin() after End() = %q, reused a prior id", third)
	}
}

func TestConcurrentBegin(t *testing.T) {
	manager := NewManager(clock.Fake(epoch))

	const workers = 32
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- manager.Begin()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("Begin() issued %q twice", id)
		}
		seen[id] = true
	}

	current, ok := manager.Current()
	if !ok || !seen[current] {
		t.Errorf("Current() = %q, %v; want one of the issued ids", current, ok)
	}
}
