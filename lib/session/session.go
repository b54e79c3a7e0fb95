// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session tracks the single logical MCP session a server
// holds at a time.
//
// The lifecycle is NoSession → Active → NoSession. [Manager.Begin]
// (on initialize) always issues a fresh id and silently replaces any
// previous session; [Manager.End] (on explicit teardown) clears it.
// Tool calls never create a session. The transport attaches
// [Manager.Current] to every response it writes.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/hostmcp/lib/clock"
)

// Session is the active session.
type Session struct {
	ID      string    `json:"id"`
	Started time.Time `json:"started"`
}

// Manager owns the current session. Safe for concurrent use. The
// zero value is not usable; call NewManager.
type Manager struct {
	clock clock.Clock

	mu      sync.Mutex
	current *Session
}

// NewManager returns a Manager with no session.
func NewManager(clk clock.Clock) *Manager {
	return &Manager{clock: clk}
}

// Begin starts a new session and returns its id. Any existing
// session is discarded.
func (m *Manager) Begin() string {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &Session{ID: id, Started: m.clock.Now()}
	return id
}

// End clears the session. Reports whether one was active.
func (m *Manager) End() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := m.current != nil
	m.current = nil
	return active
}

// Current returns the active session id, or false if there is none.
func (m *Manager) Current() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "", false
	}
	return m.current.ID, true
}

// Snapshot returns a copy of the active session.
func (m *Manager) Snapshot() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}
