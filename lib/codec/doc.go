// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration for the host socket.
//
// The MCP surface speaks JSON. The socket between the server and an
// out-of-process host speaks CBOR: it is self-delimiting, so one
// request per connection needs no framing, and it keeps integer
// arguments integral instead of widening them to float64.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2). The
// decoder produces map[string]any for untyped maps so decoded tool
// arguments look the same as arguments decoded from JSON.
//
// Wire types carry `cbor` tags when they only ever cross the socket,
// and `json` tags when they also appear in MCP output; fxamacker/cbor
// reads `json` tags when no `cbor` tag is present.
package codec
