// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build version of the hostmcp binaries.
//
// Values are injected at link time:
//
//	go build -ldflags "-X github.com/bureau-foundation/hostmcp/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/hostmcp
//
// The MCP initialize response advertises [Short] as the server version.
package version
