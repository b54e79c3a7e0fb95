// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostsocket

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net"
	"time"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
	"github.com/bureau-foundation/hostmcp/lib/codec"
)

// dialTimeout covers only the connect phase.
const dialTimeout = 5 * time.Second

// responseReadTimeout covers the longest await plus headroom.
const responseReadTimeout = MaxAwait + 15*time.Second

const maxResponseSize = 64 * 1024 * 1024

// ServiceError is returned when the server answers ok=false.
type ServiceError struct {
	Action  string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("host socket error on %q: %s", e.Action, e.Message)
}

// Client talks to a Server. Each call opens one connection. It
// implements executor.Mailbox and executor.LivenessChecker.
type Client struct {
	socketPath string
}

// NewClient returns a client for the socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Drain fetches every queued envelope.
func (c *Client) Drain(ctx context.Context) ([]callbridge.Envelope, error) {
	var response drainResponse
	if err := c.call(ctx, ActionDrain, nil, &response); err != nil {
		return nil, err
	}
	envelopes := make([]callbridge.Envelope, len(response.Envelopes))
	for i, envelope := range response.Envelopes {
		arguments := envelope.Arguments
		if arguments == nil {
			arguments = map[string]any{}
		}
		envelopes[i] = callbridge.Envelope{
			CallID:    envelope.CallID,
			Command:   envelope.Command,
			Arguments: arguments,
		}
	}
	return envelopes, nil
}

// Await blocks until work is queued or wait elapses on the server,
// and reports whether work is queued. wait is capped at MaxAwait.
func (c *Client) Await(ctx context.Context, wait time.Duration) (bool, error) {
	var response awaitResponse
	fields := map[string]any{"wait_ms": wait.Milliseconds()}
	if err := c.call(ctx, ActionAwait, fields, &response); err != nil {
		return false, err
	}
	return response.Ready, nil
}

// Complete posts a result. A call nobody is waiting for is not an
// error.
func (c *Client) Complete(ctx context.Context, callID string, result callbridge.Result) error {
	_, err := c.Deliver(ctx, callID, result)
	return err
}

// Deliver posts a result and reports whether a waiter received it.
func (c *Client) Deliver(ctx context.Context, callID string, result callbridge.Result) (bool, error) {
	var response completeResponse
	fields := map[string]any{"call_id": callID, "result": EncodeResult(result)}
	if err := c.call(ctx, ActionComplete, fields, &response); err != nil {
		return false, err
	}
	return response.Delivered, nil
}

// Live reports whether callID still has a waiter.
func (c *Client) Live(ctx context.Context, callID string) (bool, error) {
	var response liveResponse
	if err := c.call(ctx, ActionLive, map[string]any{"call_id": callID}, &response); err != nil {
		return false, err
	}
	return response.Live, nil
}

// Stats returns the server bridge's counters.
func (c *Client) Stats(ctx context.Context) (callbridge.Stats, error) {
	var response statsResponse
	if err := c.call(ctx, ActionStats, nil, &response); err != nil {
		return callbridge.Stats{}, err
	}
	return callbridge.Stats{
		Queued:     response.Queued,
		Pending:    response.Pending,
		Dispatched: response.Dispatched,
	}, nil
}

func (c *Client) call(ctx context.Context, action string, fields map[string]any, result any) error {
	request := make(map[string]any, len(fields)+1)
	maps.Copy(request, fields)
	request["action"] = action

	response, err := c.send(ctx, request)
	if err != nil {
		return fmt.Errorf("calling %q on %s: %w", action, c.socketPath, err)
	}
	if !response.OK {
		return &ServiceError{Action: action, Message: response.Error}
	}
	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, request any) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	// Abandon the exchange when ctx ends, including mid-await.
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}

// Watch long-polls the server with Await and signals the returned
// channel whenever work is queued. Signals coalesce like
// Bridge.Ready. Polling stops when ctx ends. Await errors back off
// for retry before the next poll.
func (c *Client) Watch(ctx context.Context, retry time.Duration) <-chan struct{} {
	wake := make(chan struct{}, 1)
	go func() {
		for ctx.Err() == nil {
			ready, err := c.Await(ctx, MaxAwait)
			if err != nil {
				select {
				case <-ctx.Done():
				case <-time.After(retry):
				}
				continue
			}
			if !ready {
				continue
			}
			select {
			case wake <- struct{}{}:
			default:
			}
			// The executor drains on the signal; give it a chance
			// before asking again so a queue it has not yet drained
			// does not spin this loop.
			select {
			case <-ctx.Done():
			case <-time.After(retry):
			}
		}
	}()
	return wake
}
