// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mcphttp

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
