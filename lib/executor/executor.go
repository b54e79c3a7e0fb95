// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
	"github.com/bureau-foundation/hostmcp/lib/clock"
)

// DefaultInterval is the poll period when Loop.Interval is zero.
const DefaultInterval = 50 * time.Millisecond

// Mailbox is the executor's view of a bridge.
type Mailbox interface {
	// Drain returns every queued envelope in arrival order. It must
	// not block waiting for work.
	Drain(ctx context.Context) ([]callbridge.Envelope, error)

	// Complete posts the result for callID. A call nobody waits for
	// any more is not an error.
	Complete(ctx context.Context, callID string, result callbridge.Result) error
}

// LivenessChecker is implemented by mailboxes that can report whether
// a call still has a waiter.
type LivenessChecker interface {
	Live(ctx context.Context, callID string) (bool, error)
}

// Environment is the single-owner host state commands run against.
// Execute is only ever called from one goroutine at a time.
//
// Returning a *callbridge.UnknownCommandError yields an Unknown
// result; any other error is a failure carrying err.Error(). A
// returned callbridge.Result is posted as is.
type Environment interface {
	Execute(ctx context.Context, command string, arguments map[string]any) (any, error)
}

// Loop runs queued commands against an Environment.
type Loop struct {
	Mailbox     Mailbox
	Environment Environment

	// Clock drives the poll ticker. Required for Run.
	Clock clock.Clock

	// Interval is the poll period. Defaults to DefaultInterval.
	Interval time.Duration

	// Wake, if set, triggers an activation between ticks. Pass
	// Bridge.Ready() for an in-process bridge.
	Wake <-chan struct{}

	// SkipAbandoned drops envelopes whose caller has already given
	// up instead of executing them. Needs a Mailbox that implements
	// LivenessChecker; otherwise it is ignored.
	SkipAbandoned bool

	Logger *slog.Logger
}

// Run activates the loop on every tick and every Wake signal until
// ctx is cancelled. Mailbox errors are logged and retried on the
// next activation. Returns nil when ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	if l.Clock == nil {
		return errors.New("executor: Loop.Clock is required")
	}
	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := l.Clock.NewTicker(interval)
	defer ticker.Stop()

	l.logger().Info("executor loop started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			l.logger().Info("executor loop stopped")
			return nil
		case <-ticker.C:
		case <-l.Wake:
		}

		if _, err := l.RunOnce(ctx); err != nil && ctx.Err() == nil {
			l.logger().Error("executor activation failed", "error", err)
		}
	}
}

// RunOnce performs a single activation: drain, then execute and
// complete each envelope in order. Returns the number of commands
// executed. A failed Complete does not stop the remaining envelopes;
// all such errors are joined into the returned error.
func (l *Loop) RunOnce(ctx context.Context) (int, error) {
	envelopes, err := l.Mailbox.Drain(ctx)
	if err != nil {
		return 0, fmt.Errorf("draining mailbox: %w", err)
	}

	var executed int
	var errs []error
	for _, envelope := range envelopes {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if l.abandoned(ctx, envelope) {
			l.logger().Debug("skipping abandoned call",
				"call_id", envelope.CallID,
				"command", envelope.Command,
			)
			continue
		}

		result := l.execute(ctx, envelope)
		executed++

		if err := l.Mailbox.Complete(ctx, envelope.CallID, result); err != nil {
			errs = append(errs, fmt.Errorf("completing %s: %w", envelope.CallID, err))
		}
	}
	return executed, errors.Join(errs...)
}

func (l *Loop) abandoned(ctx context.Context, envelope callbridge.Envelope) bool {
	if !l.SkipAbandoned {
		return false
	}
	checker, ok := l.Mailbox.(LivenessChecker)
	if !ok {
		return false
	}
	live, err := checker.Live(ctx, envelope.CallID)
	if err != nil {
		// Execute rather than drop a call that may still be waited on.
		l.logger().Warn("liveness check failed", "call_id", envelope.CallID, "error", err)
		return false
	}
	return !live
}

// execute runs one envelope and converts its outcome to a Result. A
// panic in the environment becomes a failure.
func (l *Loop) execute(ctx context.Context, envelope callbridge.Envelope) (result callbridge.Result) {
	start := time.Now()
	defer func() {
		if recovered := recover(); recovered != nil {
			l.logger().Error("command panicked",
				"call_id", envelope.CallID,
				"command", envelope.Command,
				"panic", recovered,
			)
			result = callbridge.Failure(fmt.Sprintf("command %s panicked: %v", envelope.Command, recovered))
		}
	}()

	value, err := l.Environment.Execute(ctx, envelope.Command, envelope.Arguments)
	result = Outcome(envelope.Command, value, err)

	l.logger().Debug("command executed",
		"call_id", envelope.CallID,
		"command", envelope.Command,
		"kind", result.Kind,
		"duration", time.Since(start),
	)
	return result
}

// Outcome converts an Environment return into a Result.
func Outcome(command string, value any, err error) callbridge.Result {
	if err != nil {
		var unknown *callbridge.UnknownCommandError
		if errors.As(err, &unknown) {
			return callbridge.Unknown(unknown.Command)
		}
		return callbridge.Failure(err.Error())
	}
	if result, ok := value.(callbridge.Result); ok {
		return result
	}
	return callbridge.Success(value)
}

func (l *Loop) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
