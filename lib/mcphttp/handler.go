// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mcphttp

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
	"github.com/bureau-foundation/hostmcp/lib/mcp"
	"github.com/bureau-foundation/hostmcp/lib/session"
	"github.com/bureau-foundation/hostmcp/lib/version"
)

// SessionHeader carries the session id on every response while a
// session exists.
const SessionHeader = "Mcp-Session-Id"

// MaxBodySize caps a POST body.
const MaxBodySize = 4 << 20

// Endpoint is the JSON-RPC path.
const Endpoint = "/mcp"

// HealthEndpoint is the health report path.
const HealthEndpoint = "/healthz"

// Sessions is the part of session.Manager the transport needs.
type Sessions interface {
	Current() (string, bool)
	End() bool
	Snapshot() (session.Session, bool)
}

// StatsSource reports bridge counters for /healthz.
type StatsSource interface {
	Snapshot() callbridge.Stats
}

// HandlerConfig configures NewHandler.
type HandlerConfig struct {
	// Router handles POST bodies. Required.
	Router *mcp.Router

	// Sessions is read for the session header and cleared on
	// DELETE. Required.
	Sessions Sessions

	// Stats, if set, is reported on /healthz.
	Stats StatsSource

	// Fingerprint identifies the served tool catalog on /healthz.
	Fingerprint string

	// Tools is the catalog size reported on /healthz.
	Tools int

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

type handler struct {
	router      *mcp.Router
	sessions    Sessions
	stats       StatsSource
	fingerprint string
	tools       int
	logger      *slog.Logger
}

// NewHandler returns the transport handler. Responses are gzip
// compressed for clients that accept it.
func NewHandler(config HandlerConfig) http.Handler {
	if config.Router == nil || config.Sessions == nil || config.Logger == nil {
		panic("mcphttp.NewHandler: Router, Sessions, and Logger are required")
	}
	h := &handler{
		router:      config.Router,
		sessions:    config.Sessions,
		stats:       config.Stats,
		fingerprint: config.Fingerprint,
		tools:       config.Tools,
		logger:      config.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(Endpoint, h.serveMCP)
	mux.HandleFunc(HealthEndpoint, h.serveHealth)
	return gzhttp.GzipHandler(mux)
}

func (h *handler) serveMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodDelete:
		ended := h.sessions.End()
		h.logger.Info("session ended by client", "had_session", ended)
		w.WriteHeader(http.StatusOK)
	default:
		// No server-initiated stream is offered.
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *handler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		status := http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.logger.Debug("rejecting request body", "error", err)
		h.writeReply(w, status, h.router.Reject(mcp.CodeParseError, "Parse error"))
		return
	}

	reply := h.router.Route(r.Context(), body)
	if reply.Notification {
		h.setSession(w, reply.Session)
		w.WriteHeader(http.StatusAccepted)
		return
	}
	h.writeReply(w, http.StatusOK, reply)
}

func (h *handler) writeReply(w http.ResponseWriter, status int, reply mcp.Reply) {
	h.setSession(w, reply.Session)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(reply.Body); err != nil {
		h.logger.Debug("writing response", "error", err)
	}
}

func (h *handler) setSession(w http.ResponseWriter, id string) {
	if id != "" {
		w.Header().Set(SessionHeader, id)
	}
}

type healthReport struct {
	Status      string            `json:"status"`
	Server      string            `json:"server"`
	Version     string            `json:"version"`
	Tools       int               `json:"tools"`
	Fingerprint string            `json:"catalog_fingerprint,omitempty"`
	Bridge      *callbridge.Stats `json:"bridge,omitempty"`
	Session     sessionReport     `json:"session"`
}

type sessionReport struct {
	Active  bool       `json:"active"`
	ID      string     `json:"id,omitempty"`
	Started *time.Time `json:"started,omitempty"`
}

func (h *handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report := healthReport{
		Status:      "ok",
		Server:      mcp.ServerName,
		Version:     version.Short(),
		Tools:       h.tools,
		Fingerprint: h.fingerprint,
	}
	if h.stats != nil {
		stats := h.stats.Snapshot()
		report.Bridge = &stats
	}
	if current, ok := h.sessions.Snapshot(); ok {
		report.Session = sessionReport{Active: true, ID: current.ID, Started: &current.Started}
	}

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		h.logger.Debug("writing health report", "error", err)
	}
}
