// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
)

// LocalMailbox adapts an in-process Bridge to Mailbox and
// LivenessChecker. None of its methods fail.
type LocalMailbox struct {
	bridge *callbridge.Bridge
}

// Local returns a Mailbox backed directly by bridge.
func Local(bridge *callbridge.Bridge) *LocalMailbox {
	return &LocalMailbox{bridge: bridge}
}

func (m *LocalMailbox) Drain(context.Context) ([]callbridge.Envelope, error) {
	return m.bridge.Drain(), nil
}

func (m *LocalMailbox) Complete(_ context.Context, callID string, result callbridge.Result) error {
	m.bridge.Complete(callID, result)
	return nil
}

func (m *LocalMailbox) Live(_ context.Context, callID string) (bool, error) {
	return m.bridge.Live(callID), nil
}
