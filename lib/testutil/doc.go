// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds test helpers shared by hostmcp packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-deadline
// safety valve so a broken bridge fails the test instead of hanging
// it. They are the only place tests use wall-clock timeouts; the
// code under test runs on a fake clock.
//
// [SocketDir] returns a short directory for Unix sockets, whose paths
// are limited to 108 bytes. [UniqueID] returns distinct call ids.
package testutil
