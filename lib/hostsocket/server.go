// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostsocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
	"github.com/bureau-foundation/hostmcp/lib/codec"
)

// Bridge is the executor side of a callbridge.Bridge.
type Bridge interface {
	Drain() []callbridge.Envelope
	Complete(callID string, result callbridge.Result) bool
	Await(ctx context.Context, maxWait time.Duration) bool
	Live(callID string) bool
	Snapshot() callbridge.Stats
}

// MaxAwait caps a single await so the connection stays inside the
// server's write deadline and the client's read deadline.
const MaxAwait = 25 * time.Second

// readTimeout bounds how long a client may take to send its request.
const readTimeout = 10 * time.Second

// writeTimeout bounds writing the response.
const writeTimeout = 10 * time.Second

// maxRequestSize bounds one CBOR request. A complete carries a tool
// result, which may be a whole buffer.
const maxRequestSize = 8 * 1024 * 1024

type actionFunc func(ctx context.Context, raw []byte) (any, error)

// Server serves a bridge's executor side on a Unix socket.
type Server struct {
	socketPath string
	bridge     Bridge
	logger     *slog.Logger
	handlers   map[string]actionFunc

	ready chan struct{}

	// activeConnections lets Serve wait for in-flight requests.
	activeConnections sync.WaitGroup
}

// NewServer creates a server for bridge on socketPath.
func NewServer(socketPath string, bridge Bridge, logger *slog.Logger) *Server {
	s := &Server{
		socketPath: socketPath,
		bridge:     bridge,
		logger:     logger,
		ready:      make(chan struct{}),
	}
	s.handlers = map[string]actionFunc{
		ActionDrain:    s.handleDrain,
		ActionAwait:    s.handleAwait,
		ActionComplete: s.handleComplete,
		ActionLive:     s.handleLive,
		ActionStats:    s.handleStats,
	}
	return s
}

// Ready is closed once the socket is listening.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Serve listens until ctx is cancelled, then waits for in-flight
// requests. A stale socket file is removed first; the socket file is
// removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// The socket carries tool arguments and results; keep it private
	// to the owning user.
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		return fmt.Errorf("restricting socket %s: %w", s.socketPath, err)
	}

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	close(s.ready)
	s.logger.Info("host socket listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	s.logger.Info("host socket stopped")
	return nil
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.writeResponse(conn, Response{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeResponse(conn, Response{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if header.Action == "" {
		s.writeResponse(conn, Response{Error: "missing required field: action"})
		return
	}
	handler, ok := s.handlers[header.Action]
	if !ok {
		s.writeResponse(conn, Response{Error: fmt.Sprintf("unknown action %q", header.Action)})
		return
	}

	result, err := handler(ctx, raw)
	if err != nil {
		s.logger.Debug("host socket action failed", "action", header.Action, "error", err)
		s.writeResponse(conn, Response{Error: err.Error()})
		return
	}

	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeResponse(conn, Response{Error: fmt.Sprintf("internal: marshaling response: %v", err)})
			return
		}
		response.Data = data
	}
	s.writeResponse(conn, response)
}

func (s *Server) writeResponse(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write host socket response", "error", err)
	}
}

func (s *Server) handleDrain(context.Context, []byte) (any, error) {
	drained := s.bridge.Drain()
	envelopes := make([]Envelope, len(drained))
	for i, envelope := range drained {
		envelopes[i] = Envelope{
			CallID:    envelope.CallID,
			Command:   envelope.Command,
			Arguments: envelope.Arguments,
		}
	}
	if len(envelopes) > 0 {
		s.logger.Debug("host drained envelopes", "count", len(envelopes))
	}
	return drainResponse{Envelopes: envelopes}, nil
}

func (s *Server) handleAwait(ctx context.Context, raw []byte) (any, error) {
	var request awaitRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid await request: %w", err)
	}
	wait := min(time.Duration(request.WaitMillis)*time.Millisecond, MaxAwait)
	return awaitResponse{Ready: s.bridge.Await(ctx, wait)}, nil
}

func (s *Server) handleComplete(_ context.Context, raw []byte) (any, error) {
	var request completeRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid complete request: %w", err)
	}
	if request.CallID == "" {
		return nil, errors.New("missing required field: call_id")
	}
	if request.Result == nil {
		return nil, errors.New("missing required field: result")
	}
	result, err := request.Result.Decode()
	if err != nil {
		return nil, err
	}
	return completeResponse{Delivered: s.bridge.Complete(request.CallID, result)}, nil
}

func (s *Server) handleLive(_ context.Context, raw []byte) (any, error) {
	var request liveRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid live request: %w", err)
	}
	if request.CallID == "" {
		return nil, errors.New("missing required field: call_id")
	}
	return liveResponse{Live: s.bridge.Live(request.CallID)}, nil
}

func (s *Server) handleStats(context.Context, []byte) (any, error) {
	stats := s.bridge.Snapshot()
	return statsResponse{
		Queued:     stats.Queued,
		Pending:    stats.Pending,
		Dispatched: stats.Dispatched,
	}, nil
}
