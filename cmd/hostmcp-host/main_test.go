// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
	"github.com/bureau-foundation/hostmcp/lib/clock"
	"github.com/bureau-foundation/hostmcp/lib/config"
	"github.com/bureau-foundation/hostmcp/lib/hostsocket"
	"github.com/bureau-foundation/hostmcp/lib/testutil"
)

const testWait = 5 * time.Second

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunHostServesSocket(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	socketPath := filepath.Join(testutil.SocketDir(t), "host.sock")
	bridge := callbridge.New(clock.Real(), logger)
	socket := hostsocket.NewServer(socketPath, bridge, logger)

	serverCtx, stopServer := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() { serverDone <- socket.Serve(serverCtx) }()
	defer func() {
		stopServer()
		testutil.RequireReceive(t, serverDone, testWait, "waiting for socket server")
	}()
	testutil.RequireClosed(t, socket.Ready(), testWait, "waiting for socket")

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("one\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Executor = config.ExecutorSocket
	cfg.SocketPath = socketPath
	cfg.Root = root
	cfg.PollInterval = 10 * time.Millisecond

	hostCtx, stopHost := context.WithCancel(context.Background())
	hostDone := make(chan error, 1)
	go func() { hostDone <- runHost(hostCtx, cfg, "", logger) }()
	defer func() {
		stopHost()
		if err := testutil.RequireReceive(t, hostDone, testWait, "waiting for host"); err != nil {
			t.Errorf("runHost: %v", err)
		}
	}()

	opened := bridge.Submit(context.Background(), "open", "open_file", map[string]any{"path": "notes.txt"}, testWait)
	if !opened.OK() {
		t.Fatalf("open_file = %+v", opened)
	}
	read := bridge.Submit(context.Background(), "read", "get_buffer", map[string]any{}, testWait)
	text, _ := read.Value.(string)
	if !strings.Contains(text, "1: one\n2: two") {
		t.Errorf("get_buffer = %+v", read)
	}
}
