// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mcphttp

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
	"github.com/bureau-foundation/hostmcp/lib/clock"
	"github.com/bureau-foundation/hostmcp/lib/editor"
	"github.com/bureau-foundation/hostmcp/lib/executor"
	"github.com/bureau-foundation/hostmcp/lib/mcp"
	"github.com/bureau-foundation/hostmcp/lib/session"
	"github.com/bureau-foundation/hostmcp/lib/testutil"
	"github.com/bureau-foundation/hostmcp/lib/tooldispatch"
)

const testWait = 5 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	server   *httptest.Server
	client   *http.Client
	sessions *session.Manager
	bridge   *callbridge.Bridge
}

// newFixture wires the full stack: router, dispatcher, bridge, and an
// in-process executor loop running the editor.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := discardLogger()

	registry, err := editor.Registry()
	if err != nil {
		t.Fatalf("editor.Registry: %v", err)
	}
	bridge := callbridge.New(clock.Real(), logger)
	sessions := session.NewManager(clock.Real())
	router := mcp.NewRouter(registry, tooldispatch.New(registry, bridge, testWait), sessions, logger)

	ctx, cancel := context.WithCancel(context.Background())
	loop := &executor.Loop{
		Mailbox:     executor.Local(bridge),
		Environment: editor.New(editor.Config{Root: t.TempDir(), Permissions: editor.Permissions{AllowEdit: true}, Logger: logger}),
		Clock:       clock.Real(),
		Wake:        bridge.Ready(),
		Logger:      logger,
	}
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	server := httptest.NewServer(NewHandler(HandlerConfig{
		Router:      router,
		Sessions:    sessions,
		Stats:       bridge,
		Fingerprint: registry.Fingerprint(),
		Tools:       registry.Len(),
		Logger:      logger,
	}))
	client := server.Client()
	t.Cleanup(func() {
		client.CloseIdleConnections()
		server.Close()
		cancel()
		testutil.RequireReceive(t, done, testWait, "waiting for executor loop")
	})
	return &fixture{server: server, client: client, sessions: sessions, bridge: bridge}
}

func (f *fixture) do(t *testing.T, method, path, body string, header http.Header) *http.Response {
	t.Helper()
	request, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	for key, values := range header {
		request.Header[key] = values
	}
	response, err := f.client.Do(request)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { response.Body.Close() })
	return response
}

func (f *fixture) post(t *testing.T, body string) *http.Response {
	t.Helper()
	return f.do(t, http.MethodPost, Endpoint, body, http.Header{"Content-Type": {"application/json"}})
}

func readBody(t *testing.T, response *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}

// callTool posts tools/call and returns the decoded tool result.
func (f *fixture) callTool(t *testing.T, name string, arguments map[string]any) mcp.ToolResult {
	t.Helper()
	params, _ := json.Marshal(map[string]any{"name": name, "arguments": arguments})
	response := f.post(t, `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":`+string(params)+`}`)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("tools/call %s status = %d", name, response.StatusCode)
	}
	var decoded struct {
		Result struct {
			Content []mcp.ContentBlock `json:"content"`
			IsError bool               `json:"isError"`
		} `json:"result"`
	}
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		t.Fatalf("decoding tools/call: %v", err)
	}
	content := make([]any, len(decoded.Result.Content))
	for i, block := range decoded.Result.Content {
		content[i] = block
	}
	return mcp.ToolResult{Content: content, IsError: decoded.Result.IsError}
}

func firstText(t *testing.T, result mcp.ToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	return result.Content[0].(mcp.ContentBlock).Text
}

func TestPostResult(t *testing.T) {
	f := newFixture(t)
	response := f.post(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	if response.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", response.StatusCode)
	}
	if got := response.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if got, want := readBody(t, response), `{"jsonrpc":"2.0","id":1,"result":{}}`; got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
	if got := response.Header.Get(SessionHeader); got != "" {
		t.Errorf("%s = %q before initialize, want empty", SessionHeader, got)
	}
}

func TestNotificationAccepted(t *testing.T) {
	f := newFixture(t)
	response := f.post(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	if response.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want 202", response.StatusCode)
	}
	if body := readBody(t, response); body != "" {
		t.Errorf("body = %q, want empty", body)
	}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	response := f.post(t, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	sessionID := response.Header.Get(SessionHeader)
	if sessionID == "" {
		t.Fatalf("initialize response has no %s header", SessionHeader)
	}

	// Later responses, including notifications, carry the same id.
	response = f.post(t, `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	if got := response.Header.Get(SessionHeader); got != sessionID {
		t.Errorf("ping session = %q, want %q", got, sessionID)
	}
	response = f.post(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	if got := response.Header.Get(SessionHeader); got != sessionID {
		t.Errorf("notification session = %q, want %q", got, sessionID)
	}

	response = f.do(t, http.MethodDelete, Endpoint, "", nil)
	if response.StatusCode != http.StatusOK {
		t.Errorf("DELETE status = %d, want 200", response.StatusCode)
	}
	if _, ok := f.sessions.Current(); ok {
		t.Error("session still current after DELETE")
	}
	response = f.post(t, `{"jsonrpc":"2.0","id":3,"method":"ping"}`)
	if got := response.Header.Get(SessionHeader); got != "" {
		t.Errorf("session header after DELETE = %q, want empty", got)
	}
}

func TestMethodAndPathErrors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, Endpoint, http.StatusMethodNotAllowed},
		{http.MethodPut, Endpoint, http.StatusMethodNotAllowed},
		{http.MethodPost, "/", http.StatusNotFound},
		{http.MethodPost, "/mcp/extra", http.StatusNotFound},
		{http.MethodPost, HealthEndpoint, http.StatusMethodNotAllowed},
	}
	for _, test := range tests {
		t.Run(test.method+" "+test.path, func(t *testing.T) {
			response := f.do(t, test.method, test.path, "{}", nil)
			if response.StatusCode != test.want {
				t.Errorf("status = %d, want %d", response.StatusCode, test.want)
			}
		})
	}
}

func TestParseErrorBody(t *testing.T) {
	f := newFixture(t)
	response := f.post(t, `{not json`)
	if response.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", response.StatusCode)
	}
	want := `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Parse error"}}`
	if got := readBody(t, response); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestOversizedBody(t *testing.T) {
	f := newFixture(t)
	body := `{"jsonrpc":"2.0","id":1,"method":"ping","params":{"pad":"` + strings.Repeat("x", MaxBodySize) + `"}}`
	response := f.post(t, body)
	if response.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", response.StatusCode)
	}
	want := `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Parse error"}}`
	if got := readBody(t, response); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestToolsListCompressed(t *testing.T) {
	f := newFixture(t)

	// Setting Accept-Encoding by hand disables the transport's
	// transparent decompression.
	response := f.do(t, http.MethodPost, Endpoint, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
		http.Header{"Accept-Encoding": {"gzip"}})
	if got := response.Header.Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("Content-Encoding = %q, want gzip", got)
	}
	reader, err := gzip.NewReader(response.Body)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	defer reader.Close()

	var decoded struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.NewDecoder(reader).Decode(&decoded); err != nil {
		t.Fatalf("decoding tools/list: %v", err)
	}
	if got, want := len(decoded.Result.Tools), len(editor.Commands()); got != want {
		t.Errorf("tools/list returned %d tools, want %d", got, want)
	}
}

func TestToolCallsReachEditor(t *testing.T) {
	f := newFixture(t)

	result := f.callTool(t, "edit_buffer", map[string]any{
		"action":     "insert",
		"start_line": 0,
		"new_lines":  []string{"first", "second"},
	})
	if result.IsError {
		t.Fatalf("edit_buffer failed: %+v", result)
	}
	if got, want := firstText(t, result), "Inserted 2 lines after line 0"; got != want {
		t.Errorf("edit_buffer text = %q, want %q", got, want)
	}

	result = f.callTool(t, "get_buffer", map[string]any{"start_line": 1, "end_line": 2})
	if got := firstText(t, result); !strings.HasSuffix(got, "1: first\n2: second") {
		t.Errorf("get_buffer text = %q", got)
	}

	// Disabled permissions come back as a tool error, not a
	// JSON-RPC error.
	result = f.callTool(t, "save_buffer", map[string]any{})
	if !result.IsError || !strings.Contains(firstText(t, result), "allow_save") {
		t.Errorf("save_buffer = %+v, want a permission error", result)
	}

	result = f.callTool(t, "frobnicate", nil)
	if !result.IsError || firstText(t, result) != "Unknown tool: frobnicate" {
		t.Errorf("frobnicate = %+v, want unknown tool error", result)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	f.post(t, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	current, _ := f.sessions.Current()

	response := f.do(t, http.MethodGet, HealthEndpoint, "", nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", response.StatusCode)
	}
	var report healthReport
	if err := json.NewDecoder(response.Body).Decode(&report); err != nil {
		t.Fatalf("decoding health report: %v", err)
	}
	if report.Status != "ok" || report.Server != mcp.ServerName {
		t.Errorf("report = %+v", report)
	}
	if report.Tools != len(editor.Commands()) {
		t.Errorf("tools = %d, want %d", report.Tools, len(editor.Commands()))
	}
	if len(report.Fingerprint) != 64 {
		t.Errorf("catalog_fingerprint = %q, want 64 hex characters", report.Fingerprint)
	}
	if report.Bridge == nil || report.Bridge.Pending != 0 {
		t.Errorf("bridge = %+v, want idle stats", report.Bridge)
	}
	if !report.Session.Active || report.Session.ID != current {
		t.Errorf("session = %+v, want active %q", report.Session, current)
	}
}

func TestServerLifecycle(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
	server := NewServer(ServerConfig{Address: "127.0.0.1:0", Handler: handler, Logger: discardLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	testutil.RequireClosed(t, server.Ready(), testWait, "waiting for server to listen")

	client := &http.Client{Timeout: testWait}
	response, err := client.Get("http://" + server.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(response.Body)
	response.Body.Close()
	client.CloseIdleConnections()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()
	if err := testutil.RequireReceive(t, done, testWait, "waiting for Serve"); err != nil {
		t.Errorf("Serve: %v", err)
	}
}

func TestServerListenError(t *testing.T) {
	server := NewServer(ServerConfig{Address: "256.0.0.1:0", Handler: http.NotFoundHandler(), Logger: discardLogger()})
	if err := server.Serve(context.Background()); err == nil {
		t.Error("Serve on an invalid address succeeded")
	}
}
