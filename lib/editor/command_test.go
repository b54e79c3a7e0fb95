// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"context"
	"strings"
	"testing"
)

func newCommandEditor(t *testing.T, content string) *Editor {
	t.Helper()
	e, root := newTestEditor(t, allowAll)
	writeFile(t, root, "ex.txt", content)
	run(t, e, "open_file", map[string]any{"path": "ex.txt"})
	return e
}

func execute(t *testing.T, e *Editor, command string) error {
	t.Helper()
	_, err := e.Execute(context.Background(), "execute_command", map[string]any{"command": command})
	return err
}

func TestExecuteCommandSubstitute(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    string
	}{
		{"whole_buffer_global", "%s/foo/bar/g", "bar bar|bar"},
		{"current_line_first_match", "s/foo/bar/", "bar foo|foo"},
		{"range", "2,2s/foo/baz/", "foo foo|baz"},
		{"groups", `%s/(f)oo/[\1]/g`, "[f] [f]|[f]"},
		{"ampersand", "%s/foo/<&>/", "<foo> foo|<foo>"},
		{"other_delimiter", "%s#foo#x#g", "x x|x"},
		{"ignore_case", "%s/FOO/q/gi", "q q|q"},
		{"leading_colon", ":s/foo/z", "z foo|foo"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e := newCommandEditor(t, "foo foo\nfoo\n")
			if err := execute(t, e, test.command); err != nil {
				t.Fatalf("execute_command(%q) error = %v", test.command, err)
			}
			if got := strings.Join(e.currentBuffer().Lines, "|"); got != test.want {
				t.Errorf("lines = %q, want %q", got, test.want)
			}
			if !e.currentBuffer().Modified {
				t.Error("substitute did not mark the buffer modified")
			}
		})
	}
}

func TestExecuteCommandResult(t *testing.T) {
	e := newCommandEditor(t, "x\n")
	got := runText(t, e, "execute_command", map[string]any{"command": "echo 'hello'"})
	if got != "Executed: echo 'hello'" {
		t.Errorf("execute_command = %q", got)
	}
	if messages := runText(t, e, "get_messages", nil); !strings.HasSuffix(messages, "\nhello") {
		t.Errorf("messages = %q, want echo output last", messages)
	}
}

func TestExecuteCommandErrors(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"%s/absent/x/", "E486: Pattern not found: absent"},
		{"frobnicate", "E492: Not an editor command: frobnicate"},
		{"9d", "E16: Invalid range"},
		{"b 99", "E86: Buffer 99 does not exist"},
		{`s\foo\bar\`, "E146"},
	}
	for _, test := range tests {
		t.Run(test.command, func(t *testing.T) {
			e := newCommandEditor(t, "a\nb\n")
			err := execute(t, e, test.command)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("execute_command(%q) error = %v, want %q", test.command, err, test.want)
			}
			if messages := runText(t, e, "get_messages", nil); !strings.Contains(messages, test.want) {
				t.Errorf("error not recorded in messages: %q", messages)
			}
		})
	}
}

func TestExecuteCommandBuffers(t *testing.T) {
	e := newCommandEditor(t, "one\ntwo\nthree\n")

	if err := execute(t, e, "2,3d"); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(e.currentBuffer().Lines, "|"); got != "one" {
		t.Errorf("after 2,3d lines = %q", got)
	}

	if err := execute(t, e, "e other.txt"); err == nil {
		t.Error(":e with unsaved changes = nil error, want E37")
	}
	if err := execute(t, e, "w"); err != nil {
		t.Fatalf(":w error = %v", err)
	}
	if err := execute(t, e, "e other.txt"); err != nil {
		t.Fatalf(":e error = %v", err)
	}
	if !strings.HasSuffix(e.currentBuffer().Name, "other.txt") {
		t.Errorf("current buffer = %q, want other.txt", e.currentBuffer().Name)
	}

	if err := execute(t, e, "b 2"); err != nil {
		t.Fatal(err)
	}
	if e.currentBuffer().Number != 2 {
		t.Errorf(":b 2 left buffer %d current", e.currentBuffer().Number)
	}
	if err := execute(t, e, "bn"); err != nil {
		t.Fatal(err)
	}
	if e.currentBuffer().Number != 3 {
		t.Errorf(":bn moved to buffer %d, want 3", e.currentBuffer().Number)
	}
	if err := execute(t, e, "bd 3"); err != nil {
		t.Fatal(err)
	}
	if e.bufferByNumber(3) != nil {
		t.Error(":bd 3 left buffer 3 in the list")
	}

	if err := execute(t, e, "tabnew"); err != nil {
		t.Fatal(err)
	}
	if len(e.tabs) != 2 || e.currentBuffer().Name != "" {
		t.Errorf(":tabnew tabs = %d, buffer %q", len(e.tabs), e.currentBuffer().Name)
	}
}

func TestExecuteCommandGotoLine(t *testing.T) {
	e := newCommandEditor(t, "a\nb\nc\n")
	if err := execute(t, e, "$"); err != nil {
		t.Fatal(err)
	}
	if line := e.window().cursor.Line; line != 3 {
		t.Errorf("cursor line = %d after :$, want 3", line)
	}
	if err := execute(t, e, "2"); err != nil {
		t.Fatal(err)
	}
	if line := e.window().cursor.Line; line != 2 {
		t.Errorf("cursor line = %d after :2, want 2", line)
	}
}

func TestExecuteCommandLockedBuffer(t *testing.T) {
	e, _ := newTestEditor(t, allowAll)
	run(t, e, "show_diff", map[string]any{"content_a": "x", "content_b": "y"})
	if err := execute(t, e, "s/y/z/"); err == nil || !strings.Contains(err.Error(), "E21") {
		t.Errorf("substitute in diff buffer error = %v, want E21", err)
	}
	if err := execute(t, e, "w"); err == nil || !strings.Contains(err.Error(), "E382") {
		t.Errorf("write of scratch buffer error = %v, want E382", err)
	}
}
