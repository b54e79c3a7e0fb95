// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcphttp serves an mcp.Router over HTTP.
//
// POST /mcp carries one JSON-RPC object per request. Responses are
// application/json; notifications are acknowledged with 202 and no
// body. The current session id is echoed in the Mcp-Session-Id
// header, and DELETE /mcp ends the session. GET /healthz reports the
// bridge counters, session state, and catalog fingerprint.
package mcphttp
