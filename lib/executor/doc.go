// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package executor drives the host side of the call bridge: it drains
// queued envelopes, runs each one against the host [Environment]
// strictly one at a time, and posts the result back.
//
// A [Loop] is agnostic about where the mailbox lives. [Local] wraps an
// in-process [callbridge.Bridge]; the hostsocket package provides a
// client that reaches a bridge in another process over a Unix socket.
// Either way the host environment is touched only from the goroutine
// running [Loop.Run].
package executor
