// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/hostmcp/lib/clock"
	"github.com/bureau-foundation/hostmcp/lib/config"
	"github.com/bureau-foundation/hostmcp/lib/editor"
	"github.com/bureau-foundation/hostmcp/lib/executor"
	"github.com/bureau-foundation/hostmcp/lib/hostsocket"
	"github.com/bureau-foundation/hostmcp/lib/mcphttp"
	"github.com/bureau-foundation/hostmcp/lib/testutil"
)

const testWait = 5 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startServer assembles and runs a server for cfg until the test ends.
func startServer(t *testing.T, cfg *config.Config) *server {
	t.Helper()
	cfg.Listen = "127.0.0.1:0"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	s, err := newServer(cfg, "", discardLogger())
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, done, testWait, "waiting for run"); err != nil {
			t.Errorf("run: %v", err)
		}
	})
	testutil.RequireClosed(t, s.http.Ready(), testWait, "waiting for HTTP listener")
	if s.socket != nil {
		testutil.RequireClosed(t, s.socket.Ready(), testWait, "waiting for host socket")
	}
	return s
}

func post(t *testing.T, s *server, body string) (string, http.Header) {
	t.Helper()
	client := &http.Client{Timeout: testWait}
	defer client.CloseIdleConnections()
	response, err := client.Post("http://"+s.http.Addr().String()+mcphttp.Endpoint, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer response.Body.Close()
	data, _ := io.ReadAll(response.Body)
	return string(data), response.Header
}

func toolText(t *testing.T, body string) string {
	t.Helper()
	var decoded struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	if err := json.Unmarshal([]byte(body), &decoded); err != nil || len(decoded.Result.Content) == 0 {
		t.Fatalf("unexpected tools/call body %s (%v)", body, err)
	}
	return decoded.Result.Content[0].Text
}

func TestBuiltinExecutor(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.Permissions.AllowEdit = true
	s := startServer(t, cfg)

	_, header := post(t, s, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	if header.Get(mcphttp.SessionHeader) == "" {
		t.Error("initialize returned no session header")
	}

	body, _ := post(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"edit_buffer","arguments":{"action":"insert","start_line":0,"new_lines":["hello"]}}}`)
	if got := toolText(t, body); got != "Inserted 1 lines after line 0" {
		t.Errorf("edit_buffer = %q", got)
	}
}

func TestApplyConfigUpdatesPermissions(t *testing.T) {
	cfg := config.Default()
	cfg.Root = t.TempDir()
	s := startServer(t, cfg)

	body, _ := post(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"execute_command","arguments":{"command":"echo 'hi'"}}}`)
	if got := toolText(t, body); !strings.Contains(got, "execute_command is disabled") {
		t.Fatalf("execute_command before reload = %q", got)
	}

	updated := config.Default()
	updated.Permissions.AllowExecute = true
	s.applyConfig(updated)

	body, _ = post(t, s, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"execute_command","arguments":{"command":"echo 'hi'"}}}`)
	if got := toolText(t, body); strings.Contains(got, "disabled") {
		t.Errorf("execute_command after reload = %q", got)
	}
}

func TestSocketExecutor(t *testing.T) {
	cfg := config.Default()
	cfg.Executor = config.ExecutorSocket
	cfg.SocketPath = filepath.Join(testutil.SocketDir(t), "host.sock")
	s := startServer(t, cfg)
	if s.loop != nil {
		t.Fatal("socket executor built an in-process loop")
	}

	client := hostsocket.NewClient(cfg.SocketPath)
	ctx, cancel := context.WithCancel(context.Background())
	loop := &executor.Loop{
		Mailbox:     client,
		Environment: editor.New(editor.Config{Root: t.TempDir(), Logger: discardLogger()}),
		Clock:       clock.Real(),
		Interval:    10 * time.Millisecond,
		Logger:      discardLogger(),
	}
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()
	defer func() {
		cancel()
		testutil.RequireReceive(t, done, testWait, "waiting for host loop")
	}()

	body, _ := post(t, s, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_cursor"}}`)
	if got := toolText(t, body); !strings.Contains(got, `"line":1`) {
		t.Errorf("get_cursor = %q", got)
	}
}

func TestLoadRegistryFromCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools.jsonc")
	catalog := `{
  // One tool for an external host.
  "tools": [
    {"name": "compile", "description": "Run the build"},
  ],
}`
	if err := os.WriteFile(path, []byte(catalog), 0o644); err != nil {
		t.Fatal(err)
	}
	registry, err := loadRegistry(path)
	if err != nil {
		t.Fatalf("loadRegistry: %v", err)
	}
	if _, ok := registry.Lookup("compile"); !ok || registry.Len() != 1 {
		t.Errorf("registry = %+v", registry.List())
	}

	if _, err := loadRegistry(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Error("loadRegistry of a missing catalog succeeded")
	}
}
