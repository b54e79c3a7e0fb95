// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package callbridge

import (
	"fmt"
)

// Kind tags a Result.
type Kind int

const (
	// KindSuccess carries the command's return value.
	KindSuccess Kind = iota

	// KindFailure means the command ran and failed, or never ran
	// before the caller stopped waiting.
	KindFailure

	// KindUnknown means no command of that name exists.
	KindUnknown
)

var kindNames = [...]string{
	KindSuccess: "success",
	KindFailure: "failure",
	KindUnknown: "unknown",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// MarshalText encodes the kind by name on the host socket.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("callbridge: invalid result kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("callbridge: unknown result kind %q", text)
}

// Result is the outcome of one call.
type Result struct {
	Kind Kind

	// Value is the command's return value for KindSuccess: text, a
	// list of content blocks, or anything else to be stringified.
	Value any

	// Message describes the failure for KindFailure and KindUnknown.
	Message string

	// Command names the missing command for KindUnknown.
	Command string
}

// Success wraps a command's return value.
func Success(value any) Result {
	return Result{Kind: KindSuccess, Value: value}
}

// Failure reports that a command failed.
func Failure(message string) Result {
	return Result{Kind: KindFailure, Message: message}
}

// Unknown reports that no command named command exists.
func Unknown(command string) Result {
	return Result{Kind: KindUnknown, Command: command, Message: "Unknown tool: " + command}
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Kind == KindSuccess }

// Err returns nil for a success and an error carrying Message
// otherwise.
func (r Result) Err() error {
	switch r.Kind {
	case KindSuccess:
		return nil
	case KindUnknown:
		return &UnknownCommandError{Command: r.Command}
	default:
		return &FailureError{Message: r.Message}
	}
}

// FailureError is the error form of a KindFailure result.
type FailureError struct {
	Message string
}

func (e *FailureError) Error() string { return e.Message }

// UnknownCommandError is returned by host environments for a command
// they do not implement, and is the error form of KindUnknown.
type UnknownCommandError struct {
	Command string
}

func (e *UnknownCommandError) Error() string { return "Unknown tool: " + e.Command }
