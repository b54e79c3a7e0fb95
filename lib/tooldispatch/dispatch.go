// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tooldispatch connects the MCP router to the call bridge:
// each tools/call for a registered tool becomes one Submit with a
// fresh call id.
package tooldispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
	"github.com/bureau-foundation/hostmcp/lib/toolspec"
)

// Submitter is the caller side of a callbridge.Bridge.
type Submitter interface {
	Submit(ctx context.Context, callID, command string, arguments map[string]any, timeout time.Duration) callbridge.Result
}

// Dispatcher implements mcp.Invoker over a bridge.
type Dispatcher struct {
	registry *toolspec.Registry
	bridge   Submitter
	timeout  time.Duration
}

// New returns a Dispatcher. A non-positive timeout uses
// callbridge.DefaultTimeout.
func New(registry *toolspec.Registry, bridge Submitter, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = callbridge.DefaultTimeout
	}
	return &Dispatcher{registry: registry, bridge: bridge, timeout: timeout}
}

// Timeout returns the per-call bound.
func (d *Dispatcher) Timeout() time.Duration { return d.timeout }

// Invoke submits name to the host and waits for its result. Unknown
// names return an Unknown result without reaching the bridge. The
// error return is always nil; failures travel inside the Result.
func (d *Dispatcher) Invoke(ctx context.Context, name string, arguments map[string]any) (any, error) {
	if _, ok := d.registry.Lookup(name); !ok {
		return callbridge.Unknown(name), nil
	}
	return d.bridge.Submit(ctx, uuid.NewString(), name, arguments, d.timeout), nil
}
