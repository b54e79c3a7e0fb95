// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package callbridge

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/bureau-foundation/hostmcp/lib/clock"
)

// DefaultTimeout bounds a Submit when the caller has no better value.
const DefaultTimeout = 30 * time.Second

// TimeoutMessage is the failure text for a call the host did not
// finish in time. The same text covers a call still queued and a
// call that was drained but is running slowly.
const TimeoutMessage = "Timeout waiting for host to process request"

// Envelope is one command handed to the executor. The bridge copies
// Arguments on Submit; the executor must treat it as read-only.
type Envelope struct {
	CallID    string         `json:"call_id"`
	Command   string         `json:"command"`
	Arguments map[string]any `json:"arguments"`
}

// Stats is a point-in-time view of the bridge for health reporting.
type Stats struct {
	// Queued is the number of envelopes waiting for Drain.
	Queued int `json:"queued"`

	// Pending is the number of Submit calls currently waiting.
	Pending int `json:"pending"`

	// Dispatched is the subset of Pending already drained by the
	// executor.
	Dispatched int `json:"dispatched"`
}

// Bridge is the mailbox plus correlation table between request
// goroutines and the host executor. Safe for concurrent use.
type Bridge struct {
	table  *Table
	clock  clock.Clock
	logger *slog.Logger

	mu    sync.Mutex
	queue []Envelope

	// ready has capacity 1. A send is attempted on every enqueue;
	// a full channel already means "work is waiting".
	ready chan struct{}
}

// New creates a Bridge that times calls out on clk. A nil logger
// uses slog.Default().
func New(clk clock.Clock, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		table:  NewTable(),
		clock:  clk,
		logger: logger,
		ready:  make(chan struct{}, 1),
	}
}

// Submit hands command to the executor and blocks until its result
// arrives, timeout elapses, or ctx ends. It returns exactly once.
//
// On timeout or cancellation the envelope stays in the mailbox if it
// has not been drained; whatever the executor later posts for callID
// is discarded. A callID already in flight is refused with a failure
// and nothing is enqueued.
func (b *Bridge) Submit(ctx context.Context, callID, command string, arguments map[string]any, timeout time.Duration) Result {
	done, err := b.table.Register(callID)
	if err != nil {
		return Failure(err.Error())
	}

	// The waiter is registered before the envelope becomes visible
	// to Drain, so an immediate Complete always finds it.
	b.enqueue(Envelope{
		CallID:    callID,
		Command:   command,
		Arguments: cloneArguments(arguments),
	})

	timer := b.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-done:
		b.table.Remove(callID)
		return result

	case <-timer.C:
		removal := b.table.Remove(callID)
		if removal.Delivered {
			return removal.Result
		}
		b.logger.Warn("call timed out",
			"call_id", callID,
			"command", command,
			"timeout", timeout,
			"stage", stage(removal),
		)
		return Failure(TimeoutMessage)

	case <-ctx.Done():
		removal := b.table.Remove(callID)
		if removal.Delivered {
			return removal.Result
		}
		b.logger.Debug("call abandoned by caller",
			"call_id", callID,
			"command", command,
			"stage", stage(removal),
			"error", ctx.Err(),
		)
		return Failure("request cancelled: " + ctx.Err().Error())
	}
}

// Drain removes and returns every queued envelope in arrival order.
// It never blocks; an empty mailbox yields an empty slice.
func (b *Bridge) Drain() []Envelope {
	b.mu.Lock()
	envelopes := b.queue
	b.queue = nil
	b.mu.Unlock()

	if len(envelopes) == 0 {
		return []Envelope{}
	}

	ids := make([]string, len(envelopes))
	for i, envelope := range envelopes {
		ids[i] = envelope.CallID
	}
	b.table.MarkDispatched(ids)
	return envelopes
}

// Complete posts result for callID. It returns true if a waiting
// Submit received it, and false, with no other effect, if the call
// already completed, timed out, or never existed.
func (b *Bridge) Complete(callID string, result Result) bool {
	return b.table.Deliver(callID, result)
}

// Ready returns a channel that receives after an envelope is queued.
// Signals coalesce: one receive may stand for many envelopes, and a
// receive may find the mailbox already drained.
func (b *Bridge) Ready() <-chan struct{} {
	return b.ready
}

// Await blocks until the mailbox is non-empty, maxWait elapses, or
// ctx ends, and reports whether work is queued. Used by executors
// that long-poll over the host socket.
func (b *Bridge) Await(ctx context.Context, maxWait time.Duration) bool {
	if b.queued() > 0 {
		return true
	}

	timer := b.clock.NewTimer(maxWait)
	defer timer.Stop()

	select {
	case <-b.ready:
	case <-timer.C:
	case <-ctx.Done():
	}
	return b.queued() > 0
}

// Live reports whether callID still has a waiter. Executors may skip
// envelopes whose caller has given up.
func (b *Bridge) Live(callID string) bool {
	return b.table.Live(callID)
}

// Snapshot returns current queue and table sizes.
func (b *Bridge) Snapshot() Stats {
	pending, dispatched := b.table.Counts()
	return Stats{
		Queued:     b.queued(),
		Pending:    pending,
		Dispatched: dispatched,
	}
}

func (b *Bridge) enqueue(envelope Envelope) {
	b.mu.Lock()
	b.queue = append(b.queue, envelope)
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}
}

func (b *Bridge) queued() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func cloneArguments(arguments map[string]any) map[string]any {
	if arguments == nil {
		return map[string]any{}
	}
	return maps.Clone(arguments)
}

func stage(removal Removal) string {
	if removal.Dispatched {
		return "executing"
	}
	return "queued"
}
