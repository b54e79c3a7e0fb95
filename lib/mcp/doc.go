// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp routes MCP JSON-RPC 2.0 requests for a host tool
// server.
//
// [Router.Route] takes one request body and returns one [Reply]. A
// request without an id (or with a null id) is a notification: its
// Reply has no body and nothing is dispatched. Everything else gets
// exactly one JSON-RPC object, either a result or an error.
//
// Tool execution never produces a JSON-RPC error. [FormatToolResult]
// turns faults, failure values, and timeouts into a normal result
// with isError set, so a client always inspects that flag rather
// than the transport status.
package mcp
