// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package callbridge ferries named commands from many request
// goroutines to the single host executor and carries each result
// back to the goroutine that asked for it.
//
// A caller blocks in [Bridge.Submit]. Submit registers the call id in
// the [Table], appends an [Envelope] to a FIFO mailbox, and waits for
// one of three things: the executor posts a result with
// [Bridge.Complete], the timeout elapses, or the caller's context
// ends. The registration is removed on every path, so a late or
// repeated Complete finds no waiter and is dropped.
//
// The executor side never blocks. [Bridge.Drain] takes every queued
// envelope in arrival order; [Bridge.Ready] signals that the mailbox
// became non-empty so the executor need not spin.
//
//	bridge := callbridge.New(clock.Real(), logger)
//
//	// request goroutine
//	result := bridge.Submit(ctx, uuid.NewString(), "get_cursor", nil, callbridge.DefaultTimeout)
//
//	// host loop
//	for _, envelope := range bridge.Drain() {
//	    bridge.Complete(envelope.CallID, run(envelope))
//	}
//
// Only the executor touches the host environment. The bridge never
// runs a command itself.
package callbridge
