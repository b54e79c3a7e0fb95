// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package callbridge

import (
	"fmt"
	"sync"
)

// pendingCall is the single-writer slot for one in-flight call. done
// has capacity 1 and is written at most once, under Table.mu, so a
// delivery can never block the executor.
type pendingCall struct {
	done       chan Result
	completed  bool
	dispatched bool
}

// Table maps call ids to their pending calls. Every method takes the
// same lock; that single critical section is what makes delivery
// at-most-once and late delivery a no-op.
type Table struct {
	mu    sync.Mutex
	calls map[string]*pendingCall
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{calls: make(map[string]*pendingCall)}
}

// Register creates the pending call for id and returns the channel
// its result will arrive on. Fails if id is already in flight.
func (t *Table) Register(id string) (<-chan Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.calls[id]; exists {
		return nil, fmt.Errorf("call id %q is already in flight", id)
	}
	call := &pendingCall{done: make(chan Result, 1)}
	t.calls[id] = call
	return call.done, nil
}

// Deliver posts result to id's waiter. Returns false, and does
// nothing, if id is not registered or was already delivered.
func (t *Table) Deliver(id string, result Result) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	call, exists := t.calls[id]
	if !exists || call.completed {
		return false
	}
	call.completed = true
	call.done <- result
	return true
}

// Removal describes the state of a call at the moment it left the
// table.
type Removal struct {
	// Result is the delivered result, valid when Delivered is true.
	Result Result

	// Delivered is true if a result arrived before removal.
	Delivered bool

	// Dispatched is true if the executor had drained the envelope.
	Dispatched bool
}

// Remove deletes id from the table. After Remove returns, no Deliver
// for id can succeed. A result delivered before removal but not yet
// read by the waiter is returned in the Removal.
func (t *Table) Remove(id string) Removal {
	t.mu.Lock()
	defer t.mu.Unlock()

	call, exists := t.calls[id]
	if !exists {
		return Removal{}
	}
	delete(t.calls, id)

	removal := Removal{Dispatched: call.dispatched}
	select {
	case result := <-call.done:
		removal.Result = result
		removal.Delivered = true
	default:
	}
	return removal
}

// MarkDispatched records that the executor has taken the envelopes
// for ids. Unknown ids are ignored.
func (t *Table) MarkDispatched(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if call, exists := t.calls[id]; exists {
			call.dispatched = true
		}
	}
}

// Live reports whether id still has a waiter that has not received a
// result.
func (t *Table) Live(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	call, exists := t.calls[id]
	return exists && !call.completed
}

// Counts returns the number of registered calls and how many of them
// the executor has drained.
func (t *Table) Counts() (pending, dispatched int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, call := range t.calls {
		pending++
		if call.dispatched {
			dispatched++
		}
	}
	return pending, dispatched
}
