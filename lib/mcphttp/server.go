// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mcphttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server serves a handler on a TCP listener. Serve blocks until the
// context is cancelled and in-flight requests drain.
type Server struct {
	address string
	handler http.Handler
	logger  *slog.Logger

	shutdownTimeout time.Duration
	writeTimeout    time.Duration

	// ready is closed once the listener is bound.
	ready chan struct{}

	// addr is valid after ready is closed.
	addr net.Addr
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// Address is the TCP listen address, e.g. "127.0.0.1:8765".
	// Required.
	Address string

	// Handler is usually the result of NewHandler. Required.
	Handler http.Handler

	// CallTimeout is the longest a tools/call may wait on the host.
	// The write timeout is derived from it so a call that times out
	// can still deliver its error. Defaults to 30 seconds.
	CallTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Defaults to 10
	// seconds.
	ShutdownTimeout time.Duration

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// NewServer creates a server for config. Call Serve to start it.
func NewServer(config ServerConfig) *Server {
	if config.Address == "" {
		panic("mcphttp.Server: Address is required")
	}
	if config.Handler == nil {
		panic("mcphttp.Server: Handler is required")
	}
	if config.Logger == nil {
		panic("mcphttp.Server: Logger is required")
	}

	shutdown := config.ShutdownTimeout
	if shutdown == 0 {
		shutdown = 10 * time.Second
	}
	callTimeout := config.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}

	return &Server{
		address:         config.Address,
		handler:         config.Handler,
		logger:          config.Logger,
		shutdownTimeout: shutdown,
		writeTimeout:    callTimeout + 10*time.Second,
		ready:           make(chan struct{}),
	}
}

// Ready is closed once the server is bound and accepting.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the resolved listen address. Only valid after Ready
// is closed; with port 0 it carries the assigned port.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Serve accepts connections until ctx is cancelled, then stops
// accepting and waits up to the shutdown timeout for active requests.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("mcp server listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("mcp server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("mcp server shutdown error", "error", err)
		return fmt.Errorf("mcp server shutdown: %w", err)
	}

	s.logger.Info("mcp server stopped")
	return nil
}
