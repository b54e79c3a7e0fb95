// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package callbridge

import (
	"errors"
	"testing"
)

func TestTableDeliverAtMostOnce(t *testing.T) {
	table := NewTable()
	done, err := table.Register("a")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if !table.Deliver("a", Success("first")) {
		t.Fatal("first Deliver = false, want true")
	}
	if table.Deliver("a", Success("second")) {
		t.Fatal("second Deliver = true, want false")
	}

	got := <-done
	if got.Value != "first" {
		t.Errorf("delivered value = %v, want first", got.Value)
	}
	select {
	case extra := <-done:
		t.Fatalf("second result leaked to waiter: %+v", extra)
	default:
	}
}

func TestTableRegisterDuplicate(t *testing.T) {
	table := NewTable()
	if _, err := table.Register("a"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := table.Register("a"); err == nil {
		t.Fatal("second Register of the same id succeeded")
	}
}

func TestTableRemove(t *testing.T) {
	table := NewTable()

	t.Run("undelivered", func(t *testing.T) {
		table.Register("pending")
		removal := table.Remove("pending")
		if removal.Delivered {
			t.Error("Delivered = true for a call with no result")
		}
		if table.Deliver("pending", Success(1)) {
			t.Error("Deliver after Remove = true, want false")
		}
		if table.Live("pending") {
			t.Error("Live after Remove = true")
		}
	})

	t.Run("delivered_but_unread", func(t *testing.T) {
		table.Register("raced")
		table.Deliver("raced", Success("value"))
		removal := table.Remove("raced")
		if !removal.Delivered || removal.Result.Value != "value" {
			t.Errorf("Remove = %+v, want delivered value", removal)
		}
	})

	t.Run("missing", func(t *testing.T) {
		if removal := table.Remove("never"); removal.Delivered || removal.Dispatched {
			t.Errorf("Remove(missing) = %+v, want zero", removal)
		}
	})
}

func TestTableDispatchedCounts(t *testing.T) {
	table := NewTable()
	table.Register("a")
	table.Register("b")
	table.MarkDispatched([]string{"a", "ghost"})

	pending, dispatched := table.Counts()
	if pending != 2 || dispatched != 1 {
		t.Errorf("Counts() = (%d, %d), want (2, 1)", pending, dispatched)
	}
	if !table.Remove("a").Dispatched {
		t.Error("Removal.Dispatched = false for a drained call")
	}
	if table.Remove("b").Dispatched {
		t.Error("Removal.Dispatched = true for a queued call")
	}
}

func TestResultKinds(t *testing.T) {
	if err := Success("x").Err(); err != nil {
		t.Errorf("Success.Err() = %v, want nil", err)
	}
	if err := Failure("boom").Err(); err == nil || err.Error() != "boom" {
		t.Errorf("Failure.Err() = %v, want boom", err)
	}
	unknown := Unknown("frobnicate")
	if unknown.Message != "Unknown tool: frobnicate" {
		t.Errorf("Unknown message = %q", unknown.Message)
	}
	var unknownErr *UnknownCommandError
	if !errors.As(unknown.Err(), &unknownErr) {
		t.Fatalf("Unknown.Err() = %v, want *UnknownCommandError", unknown.Err())
	}
	if unknownErr.Command != "frobnicate" {
		t.Errorf("UnknownCommandError.Command = %q", unknownErr.Command)
	}
}

func TestKindText(t *testing.T) {
	for _, kind := range []Kind{KindSuccess, KindFailure, KindUnknown} {
		text, err := kind.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", kind, err)
		}
		var decoded Kind
		if err := decoded.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", text, err)
		}
		if decoded != kind {
			t.Errorf("kind %v decoded as %v", kind, decoded)
		}
	}
	var bogus Kind
	if err := bogus.UnmarshalText([]byte("maybe")); err == nil {
		t.Error("UnmarshalText(maybe) succeeded")
	}
}
