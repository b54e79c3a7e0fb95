// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostsocket

import (
	"github.com/bureau-foundation/hostmcp/lib/callbridge"
	"github.com/bureau-foundation/hostmcp/lib/codec"
)

// Action names.
const (
	ActionDrain    = "drain"
	ActionAwait    = "await"
	ActionComplete = "complete"
	ActionLive     = "live"
	ActionStats    = "stats"
)

// Response is the envelope for every reply.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// Envelope is the wire form of callbridge.Envelope.
type Envelope struct {
	CallID    string         `cbor:"call_id"`
	Command   string         `cbor:"command"`
	Arguments map[string]any `cbor:"arguments"`
}

// Result is the wire form of callbridge.Result. Kind is the kind's
// name: "success", "failure", or "unknown".
type Result struct {
	Kind    string `cbor:"kind"`
	Value   any    `cbor:"value,omitempty"`
	Message string `cbor:"message,omitempty"`
	Command string `cbor:"command,omitempty"`
}

// EncodeResult converts a bridge result to its wire form.
func EncodeResult(result callbridge.Result) Result {
	return Result{
		Kind:    result.Kind.String(),
		Value:   result.Value,
		Message: result.Message,
		Command: result.Command,
	}
}

// Decode converts a wire result back to a bridge result.
func (r Result) Decode() (callbridge.Result, error) {
	var kind callbridge.Kind
	if err := kind.UnmarshalText([]byte(r.Kind)); err != nil {
		return callbridge.Result{}, err
	}
	switch kind {
	case callbridge.KindSuccess:
		return callbridge.Success(r.Value), nil
	case callbridge.KindUnknown:
		return callbridge.Unknown(r.Command), nil
	default:
		return callbridge.Failure(r.Message), nil
	}
}

type drainResponse struct {
	Envelopes []Envelope `cbor:"envelopes"`
}

type awaitRequest struct {
	WaitMillis int64 `cbor:"wait_ms"`
}

type awaitResponse struct {
	Ready bool `cbor:"ready"`
}

type completeRequest struct {
	CallID string  `cbor:"call_id"`
	Result *Result `cbor:"result"`
}

type completeResponse struct {
	Delivered bool `cbor:"delivered"`
}

type liveRequest struct {
	CallID string `cbor:"call_id"`
}

type liveResponse struct {
	Live bool `cbor:"live"`
}

type statsResponse struct {
	Queued     int `cbor:"queued"`
	Pending    int `cbor:"pending"`
	Dispatched int `cbor:"dispatched"`
}
