// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package editor is an in-memory text editor that implements the host
// side of the editor tool catalog. It keeps a buffer list, tab pages
// with windows and cursors, quickfix and location lists, a message
// history, and the last visual selection.
//
// An [Editor] is an executor.Environment: it is meant to be driven
// by a single executor loop, and every command runs under one lock.
// Files are read from and written to disk relative to the configured
// root directory.
//
// Commands that would modify buffers, write files, or run arbitrary
// Ex commands are off until enabled with [Editor.SetPermissions].
package editor

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
)

// Permissions gates the commands that change state outside the
// viewer's control. All default to false.
type Permissions struct {
	AllowEdit    bool
	AllowSave    bool
	AllowExecute bool
}

// Position is a 1-based line and column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Buffer is one entry in the buffer list.
type Buffer struct {
	Number   int
	Name     string
	Lines    []string
	Modified bool

	// Scratch buffers have no backing file and cannot be saved.
	Scratch bool

	// Locked buffers reject edits (Vim's nomodifiable).
	Locked bool

	// lastCursor is restored when a window switches back to the
	// buffer.
	lastCursor Position
}

// DisplayName returns the buffer name, or "[No Name]".
func (b *Buffer) DisplayName() string {
	if b.Name == "" {
		return "[No Name]"
	}
	return b.Name
}

type window struct {
	buffer        *Buffer
	cursor        Position
	locations     List
	locationsOpen bool
	diff          bool
}

type tabPage struct {
	windows []*window
	current int
}

// Selection types, as Vim's mode() reports them.
const (
	SelectCharacterwise = "v"
	SelectLinewise      = "V"
	SelectBlockwise     = "\x16"
)

// Selection is a visual selection. Start and End may be given in
// either order.
type Selection struct {
	Mode  string
	Start Position
	End   Position
}

// Config configures an Editor.
type Config struct {
	// Root resolves relative file paths. Defaults to the working
	// directory.
	Root string

	Permissions Permissions

	Logger *slog.Logger
}

// Editor is the in-memory editor state.
type Editor struct {
	root        string
	logger      *slog.Logger
	permissions atomic.Pointer[Permissions]

	mu         sync.Mutex
	buffers    []*Buffer
	nextNumber int
	tabs       []*tabPage
	currentTab int

	quickfix     List
	quickfixOpen bool

	messages []string

	// selection is the last visual selection; visualActive means
	// it is still being made.
	selection    *Selection
	visualActive bool
}

// New returns an editor holding one empty, unnamed buffer in one
// window.
func New(config Config) *Editor {
	root := config.Root
	if root == "" {
		root = "."
	}
	if absolute, err := filepath.Abs(root); err == nil {
		root = absolute
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Editor{root: root, logger: logger, nextNumber: 1}
	permissions := config.Permissions
	e.permissions.Store(&permissions)

	first := e.newBuffer("")
	e.tabs = []*tabPage{{windows: []*window{{buffer: first, cursor: Position{1, 1}}}}}
	return e
}

// SetPermissions replaces the permission set. Safe to call from any
// goroutine; the next command sees the new value.
func (e *Editor) SetPermissions(permissions Permissions) {
	e.permissions.Store(&permissions)
	e.logger.Info("editor permissions updated",
		"allow_edit", permissions.AllowEdit,
		"allow_save", permissions.AllowSave,
		"allow_execute", permissions.AllowExecute,
	)
}

// Permissions returns the current permission set.
func (e *Editor) Permissions() Permissions {
	return *e.permissions.Load()
}

// SetVisualSelection records a visual selection as if the user had
// made it. active reports whether visual mode is still on.
func (e *Editor) SetVisualSelection(selection Selection, active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selection = &selection
	e.visualActive = active
}

// commandFunc implements one tool. It runs with e.mu held.
type commandFunc func(e *Editor, arguments map[string]any) (any, error)

var commands = map[string]commandFunc{
	"list_buffers":         (*Editor).listBuffers,
	"get_buffer":           (*Editor).getBuffer,
	"edit_buffer":          (*Editor).editBuffer,
	"open_file":            (*Editor).openFile,
	"save_buffer":          (*Editor).saveBuffer,
	"close_buffer":         (*Editor).closeBuffer,
	"get_cursor":           (*Editor).getCursor,
	"set_cursor":           (*Editor).setCursor,
	"get_visual_selection": (*Editor).getVisualSelection,
	"execute_command":      (*Editor).executeCommand,
	"get_quickfix_list":    (*Editor).getQuickfixList,
	"set_quickfix_list":    (*Editor).setQuickfixList,
	"get_location_list":    (*Editor).getLocationList,
	"set_location_list":    (*Editor).setLocationList,
	"get_messages":         (*Editor).getMessages,
	"show_diff":            (*Editor).showDiff,
}

// Commands returns the names of every implemented command.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	return names
}

// Execute runs one command. An unknown command yields
// *callbridge.UnknownCommandError.
func (e *Editor) Execute(ctx context.Context, command string, arguments map[string]any) (any, error) {
	handler, ok := commands[command]
	if !ok {
		return nil, &callbridge.UnknownCommandError{Command: command}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if arguments == nil {
		arguments = map[string]any{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return handler(e, arguments)
}

// errorValue is the failure shape tools return for expected problems
// such as a missing buffer or a disabled command.
func errorValue(message string) map[string]any {
	return map[string]any{"error": message}
}

func (e *Editor) tab() *tabPage { return e.tabs[e.currentTab] }

func (e *Editor) window() *window {
	tab := e.tab()
	return tab.windows[tab.current]
}

func (e *Editor) currentBuffer() *Buffer { return e.window().buffer }

func (e *Editor) newBuffer(name string) *Buffer {
	buffer := &Buffer{
		Number:     e.nextNumber,
		Name:       name,
		Lines:      []string{""},
		lastCursor: Position{1, 1},
	}
	e.nextNumber++
	e.buffers = append(e.buffers, buffer)
	return buffer
}

func (e *Editor) bufferByNumber(number int) *Buffer {
	for _, buffer := range e.buffers {
		if buffer.Number == number {
			return buffer
		}
	}
	return nil
}

// bufferByPath matches an exact name or a path suffix, treating
// backslashes as slashes.
func (e *Editor) bufferByPath(path string) *Buffer {
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, buffer := range e.buffers {
		if buffer.Name == path || strings.HasSuffix(strings.ReplaceAll(buffer.Name, "\\", "/"), normalized) {
			return buffer
		}
	}
	return nil
}

// resolveBuffer picks the buffer named by buffer_id or buffer_path,
// or the current buffer if neither is given. Returns nil if the named
// buffer does not exist.
func (e *Editor) resolveBuffer(arguments map[string]any) (*Buffer, error) {
	number, hasNumber, err := intArg(arguments, "buffer_id")
	if err != nil {
		return nil, err
	}
	if hasNumber {
		return e.bufferByNumber(number), nil
	}
	path, hasPath, err := stringArg(arguments, "buffer_path")
	if err != nil {
		return nil, err
	}
	if hasPath {
		return e.bufferByPath(path), nil
	}
	return e.currentBuffer(), nil
}

// show displays buffer in the current window, restoring its last
// cursor position.
func (e *Editor) show(buffer *Buffer) {
	current := e.window()
	if current.buffer == buffer {
		return
	}
	current.buffer.lastCursor = current.cursor
	current.buffer = buffer
	current.cursor = clampCursor(buffer, buffer.lastCursor)
}

func (e *Editor) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(e.root, path)
}

func (e *Editor) message(text string) {
	e.messages = append(e.messages, text)
}

// clampCursor keeps a position inside buffer.
func clampCursor(buffer *Buffer, position Position) Position {
	if position.Line < 1 {
		position.Line = 1
	}
	if position.Line > len(buffer.Lines) {
		position.Line = len(buffer.Lines)
	}
	maxColumn := max(1, len(buffer.Lines[position.Line-1]))
	if position.Column < 1 {
		position.Column = 1
	}
	if position.Column > maxColumn {
		position.Column = maxColumn
	}
	return position
}

// clampWindows pulls every window cursor on buffer back inside it
// after lines were removed.
func (e *Editor) clampWindows(buffer *Buffer) {
	for _, tab := range e.tabs {
		for _, w := range tab.windows {
			if w.buffer == buffer {
				w.cursor = clampCursor(buffer, w.cursor)
			}
		}
	}
	buffer.lastCursor = clampCursor(buffer, buffer.lastCursor)
}
