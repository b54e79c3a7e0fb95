// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
	"github.com/bureau-foundation/hostmcp/lib/toolspec"
	"github.com/bureau-foundation/hostmcp/lib/version"
)

// Invoker runs a named tool. The returned value and error are passed
// to FormatToolResult.
type Invoker interface {
	Invoke(ctx context.Context, name string, arguments map[string]any) (any, error)
}

// Sessions is the part of session.Manager the router needs.
type Sessions interface {
	Begin() string
	Current() (string, bool)
}

// Reply is the outcome of routing one request body.
type Reply struct {
	// Body is the encoded JSON-RPC response. Nil for notifications.
	Body []byte

	// Notification is true when the request had no id.
	Notification bool

	// Session is the session id current after the request was
	// handled, or empty if there is none.
	Session string
}

// Router dispatches JSON-RPC requests by method.
type Router struct {
	registry *toolspec.Registry
	invoker  Invoker
	sessions Sessions
	logger   *slog.Logger
}

// NewRouter creates a router over registry. All arguments are
// required.
func NewRouter(registry *toolspec.Registry, invoker Invoker, sessions Sessions, logger *slog.Logger) *Router {
	if registry == nil || invoker == nil || sessions == nil || logger == nil {
		panic("mcp.NewRouter: registry, invoker, sessions, and logger are required")
	}
	return &Router{
		registry: registry,
		invoker:  invoker,
		sessions: sessions,
		logger:   logger,
	}
}

// Route handles one request body. It never fails: malformed input
// produces a JSON-RPC error response.
func (r *Router) Route(ctx context.Context, body []byte) Reply {
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		r.logger.Debug("unparseable request", "error", err)
		return r.reply(errorResponse(nullID, CodeParseError, "Parse error"))
	}

	if req.isNotification() {
		r.logger.Debug("notification received", "method", req.Method)
		return Reply{Notification: true, Session: r.currentSession()}
	}

	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		return r.reply(errorResponse(req.ID, CodeInvalidRequest, "Invalid Request: unsupported JSON-RPC version "+req.JSONRPC))
	}

	return r.reply(r.dispatch(ctx, &req))
}

func (r *Router) dispatch(ctx context.Context, req *request) response {
	switch req.Method {
	case MethodInitialize:
		return r.handleInitialize(req)
	case MethodToolsList:
		return r.handleToolsList(req)
	case MethodToolsCall:
		return r.handleToolsCall(ctx, req)
	case MethodPing:
		return resultResponse(req.ID, map[string]any{})
	default:
		return errorResponse(req.ID, CodeMethodNotFound, "Method not found: "+req.Method)
	}
}

func (r *Router) handleInitialize(req *request) response {
	sessionID := r.sessions.Begin()
	r.logger.Info("session initialized", "session_id", sessionID)
	return resultResponse(req.ID, initializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    serverCapabilities{Tools: toolCapability{ListChanged: false}},
		ServerInfo: serverInfo{
			Name:    ServerName,
			Version: version.Short(),
		},
	})
}

func (r *Router) handleToolsList(req *request) response {
	specs := r.registry.List()
	descriptions := make([]toolDescription, len(specs))
	for i, spec := range specs {
		descriptions[i] = toolDescription{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.InputSchema,
		}
	}
	return resultResponse(req.ID, toolsListResult{Tools: descriptions})
}

func (r *Router) handleToolsCall(ctx context.Context, req *request) response {
	var params toolsCallParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, CodeInvalidParams, "Invalid params: "+err.Error())
		}
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	if _, ok := r.registry.Lookup(params.Name); !ok {
		r.logger.Debug("unknown tool", "tool", params.Name)
		return resultResponse(req.ID, FormatToolResult(callbridge.Unknown(params.Name), nil))
	}

	start := time.Now()
	value, err := r.invoke(ctx, params.Name, params.Arguments)
	result := FormatToolResult(value, err)

	r.logger.Debug("tool call finished",
		"tool", params.Name,
		"is_error", result.IsError,
		"duration", time.Since(start),
	)
	return resultResponse(req.ID, result)
}

// Reject builds an error reply with a null id for a request the
// transport refused before routing, such as an oversized body.
func (r *Router) Reject(code int, message string) Reply {
	return r.reply(errorResponse(nullID, code, message))
}

// invoke calls the invoker, converting a panic into an error.
func (r *Router) invoke(ctx context.Context, name string, arguments map[string]any) (value any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("tool invocation panicked", "tool", name, "panic", recovered)
			value, err = nil, fmt.Errorf("tool %s panicked: %v", name, recovered)
		}
	}()
	return r.invoker.Invoke(ctx, name, arguments)
}

func (r *Router) reply(resp response) Reply {
	body, err := json.Marshal(resp)
	if err != nil {
		// Only a tool value that defeats encoding/json gets here.
		r.logger.Error("encoding response", "error", err)
		body, _ = json.Marshal(errorResponse(resp.ID, CodeInternalError, "Internal error: "+err.Error()))
	}
	return Reply{Body: body, Session: r.currentSession()}
}

func (r *Router) currentSession() string {
	id, _ := r.sessions.Current()
	return id
}

func resultResponse(id json.RawMessage, result any) response {
	return response{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) response {
	return response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
}
