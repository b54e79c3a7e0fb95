// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeClockNow(t *testing.T) {
	clock := Fake(epoch)
	if got := clock.Now(); !got.Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", got, epoch)
	}
	clock.Advance(5 * time.Second)
	if got, want := clock.Now(), epoch.Add(5*time.Second); !got.Equal(want) {
		t.Fatalf("Now() after Advance = %v, want %v", got, want)
	}
}

func TestFakeTimerFiresOnAdvance(t *testing.T) {
	clock := Fake(epoch)
	timer := clock.NewTimer(3 * time.Second)

	clock.Advance(2 * time.Second)
	select {
	case <-timer.C:
		t.Fatal("timer fired before its deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case fired := <-timer.C:
		if want := epoch.Add(3 * time.Second); !fired.Equal(want) {
			t.Errorf("fire time = %v, want %v", fired, want)
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}

	if clock.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d after firing, want 0", clock.PendingCount())
	}
}

func TestFakeTimerZeroDurationFiresImmediately(t *testing.T) {
	clock := Fake(epoch)
	timer := clock.NewTimer(0)
	select {
	case <-timer.C:
	default:
		t.Fatal("NewTimer(0) should fire immediately")
	}
	if clock.PendingCount() != 0 {
		t.Errorf("NewTimer(0) registered a waiter")
	}
}

func TestFakeTimerStop(t *testing.T) {
	clock := Fake(epoch)
	timer := clock.NewTimer(time.Second)

	if !timer.Stop() {
		t.Fatal("Stop() on a pending timer = false, want true")
	}
	if timer.Stop() {
		t.Error("second Stop() = true, want false")
	}

	clock.Advance(time.Minute)
	select {
	case <-timer.C:
		t.Fatal("stopped timer fired")
	default:
	}
}

func TestFakeTickerReschedules(t *testing.T) {
	clock := Fake(epoch)
	ticker := clock.NewTicker(time.Second)
	defer ticker.Stop()

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		select {
		case <-ticker.C:
		default:
			t.Fatalf("tick %d missing", i)
		}
	}
	if clock.PendingCount() != 1 {
		t.Errorf("PendingCount() = %d, want 1 (ticker stays armed)", clock.PendingCount())
	}
}

func TestFakeTickerPanicsOnNonPositiveInterval(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewTicker(0) did not panic")
		}
	}()
	Fake(epoch).NewTicker(0)
}

func TestWaitForTimers(t *testing.T) {
	clock := Fake(epoch)
	armed := make(chan struct{})
	done := make(chan struct{})

	go func() {
		close(armed)
		timer := clock.NewTimer(10 * time.Second)
		<-timer.C
		close(done)
	}()

	<-armed
	clock.WaitForTimers(1)
	clock.Advance(10 * time.Second)
	<-done
}
