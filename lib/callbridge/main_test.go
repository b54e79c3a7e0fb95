// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package callbridge

import (
	"testing"

	"go.uber.org/goleak"
)

// Every Submit goroutine in these tests must return; a leak means a
// waiter was left registered with no way to wake.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
