// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostsocket exposes the executor side of a call bridge on a
// Unix socket so a host running in another process (an editor plugin,
// or cmd/hostmcp-host) can drain and complete calls.
//
// The protocol is CBOR, one request and one response per connection.
// Every request is a map with an "action" field; every response is
// {ok, error, data}:
//
//	drain     → {envelopes: [{call_id, command, arguments}, ...]}
//	await     {wait_ms}                 → {ready}
//	complete  {call_id, result}         → {delivered}
//	live      {call_id}                 → {live}
//	stats                               → {queued, pending, dispatched}
//
// drain never blocks. await long-polls until work is queued or
// wait_ms elapses, so a remote executor need not spin. [Client]
// implements executor.Mailbox and executor.LivenessChecker over this
// protocol.
package hostsocket
