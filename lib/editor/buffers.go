// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

type bufferInfo struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	Modified  bool   `json:"modified"`
	Active    bool   `json:"active"`
	LineCount int    `json:"line_count"`
}

func (e *Editor) listBuffers(map[string]any) (any, error) {
	current := e.currentBuffer()
	buffers := make([]bufferInfo, 0, len(e.buffers))
	for _, buffer := range e.buffers {
		buffers = append(buffers, bufferInfo{
			Number:    buffer.Number,
			Name:      buffer.DisplayName(),
			Modified:  buffer.Modified,
			Active:    buffer == current,
			LineCount: len(buffer.Lines),
		})
	}
	encoded, err := json.MarshalIndent(buffers, "", "  ")
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func (e *Editor) getBuffer(arguments map[string]any) (any, error) {
	buffer, err := e.resolveBuffer(arguments)
	if err != nil {
		return nil, err
	}
	if buffer == nil {
		return errorValue("Buffer not found"), nil
	}

	start, hasStart, err := intArg(arguments, "start_line")
	if err != nil {
		return nil, err
	}
	end, hasEnd, err := intArg(arguments, "end_line")
	if err != nil {
		return nil, err
	}
	if !hasStart {
		start = 1
	}
	if !hasEnd {
		end = len(buffer.Lines)
	}
	start = max(1, start)
	end = min(len(buffer.Lines), end)

	var builder strings.Builder
	fmt.Fprintf(&builder, "Buffer %d: %s (%d lines)\n", buffer.Number, buffer.DisplayName(), len(buffer.Lines))
	for number := start; number <= end; number++ {
		if number > start {
			builder.WriteByte('\n')
		}
		fmt.Fprintf(&builder, "%d: %s", number, buffer.Lines[number-1])
	}
	return builder.String(), nil
}

func (e *Editor) editBuffer(arguments map[string]any) (any, error) {
	if !e.Permissions().AllowEdit {
		return errorValue("edit_buffer is disabled. Set permissions.allow_edit to true to enable."), nil
	}
	buffer, err := e.resolveBuffer(arguments)
	if err != nil {
		return nil, err
	}
	if buffer == nil {
		return errorValue("Buffer not found"), nil
	}
	if buffer.Locked {
		return nil, errors.New("E21: Cannot make changes, 'modifiable' is off")
	}

	action, _, err := stringArg(arguments, "action")
	if err != nil {
		return nil, err
	}
	start, hasStart, err := intArg(arguments, "start_line")
	if err != nil {
		return nil, err
	}
	end, hasEnd, err := intArg(arguments, "end_line")
	if err != nil {
		return nil, err
	}
	newLines, hasLines, err := stringsArg(arguments, "new_lines")
	if err != nil {
		return nil, err
	}

	switch action {
	case "replace":
		if !hasLines {
			return errorValue("new_lines is required for replace"), nil
		}
		if !hasEnd {
			return errorValue("end_line is required for replace"), nil
		}
		if err := checkRange(buffer, start, end, hasStart); err != nil {
			return errorValue(err.Error()), nil
		}
		buffer.replaceLines(start-1, end, newLines)
		e.clampWindows(buffer)
		return fmt.Sprintf("Replaced lines %d-%d with %d lines", start, end, len(newLines)), nil

	case "insert":
		if !hasLines {
			return errorValue("new_lines is required for insert"), nil
		}
		if !hasStart || start < 0 || start > len(buffer.Lines) {
			return errorValue(fmt.Sprintf("start_line %d is out of range (0-%d)", start, len(buffer.Lines))), nil
		}
		buffer.replaceLines(start, start, newLines)
		return fmt.Sprintf("Inserted %d lines after line %d", len(newLines), start), nil

	case "delete":
		if !hasEnd {
			return errorValue("end_line is required for delete"), nil
		}
		if err := checkRange(buffer, start, end, hasStart); err != nil {
			return errorValue(err.Error()), nil
		}
		buffer.replaceLines(start-1, end, nil)
		e.clampWindows(buffer)
		return fmt.Sprintf("Deleted lines %d-%d", start, end), nil
	}
	return errorValue(fmt.Sprintf("Unknown action: %s", action)), nil
}

func checkRange(buffer *Buffer, start, end int, hasStart bool) error {
	if !hasStart {
		return errors.New("start_line is required")
	}
	if start < 1 || end < start || end > len(buffer.Lines) {
		return fmt.Errorf("line range %d-%d is out of range (1-%d)", start, end, len(buffer.Lines))
	}
	return nil
}

// replaceLines replaces Lines[from:to] with lines. A buffer always
// keeps at least one line.
func (b *Buffer) replaceLines(from, to int, lines []string) {
	updated := make([]string, 0, len(b.Lines)-(to-from)+len(lines))
	updated = append(updated, b.Lines[:from]...)
	updated = append(updated, lines...)
	updated = append(updated, b.Lines[to:]...)
	if len(updated) == 0 {
		updated = []string{""}
	}
	b.Lines = updated
	b.Modified = true
}

func (e *Editor) openFile(arguments map[string]any) (any, error) {
	path, _, err := stringArg(arguments, "path")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New("E32: No file name")
	}
	buffer, err := e.edit(path)
	if err != nil {
		return nil, err
	}
	e.show(buffer)
	return fmt.Sprintf("Opened %s", path), nil
}

// edit returns the buffer for path, loading it from disk if it is
// not open yet. A file that does not exist opens as an empty buffer.
func (e *Editor) edit(path string) (*Buffer, error) {
	name := e.resolvePath(path)
	if existing := e.bufferByName(name); existing != nil {
		return existing, nil
	}

	lines, err := readLines(name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("E484: Can't open file %s: %w", name, err)
	}

	buffer := e.newBuffer(name)
	if err == nil {
		buffer.Lines = lines
		e.message(fmt.Sprintf("%q %dL", name, len(lines)))
	} else {
		e.message(fmt.Sprintf("%q [New]", name))
	}
	return buffer, nil
}

func (e *Editor) bufferByName(name string) *Buffer {
	for _, buffer := range e.buffers {
		if buffer.Name == name {
			return buffer
		}
	}
	return nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSuffix(string(data), "\n")
	return strings.Split(text, "\n"), nil
}

func (e *Editor) saveBuffer(arguments map[string]any) (any, error) {
	if !e.Permissions().AllowSave {
		return errorValue("save_buffer is disabled. Set permissions.allow_save to true to enable."), nil
	}
	buffer, err := e.resolveBuffer(arguments)
	if err != nil {
		return nil, err
	}
	if buffer == nil {
		return errorValue("Buffer not found"), nil
	}
	if err := e.write(buffer); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Saved buffer %d: %s", buffer.Number, buffer.Name), nil
}

func (e *Editor) write(buffer *Buffer) error {
	if buffer.Scratch {
		return errors.New("E382: Cannot write, 'buftype' option is set")
	}
	if buffer.Name == "" {
		return errors.New("E32: No file name")
	}
	data := strings.Join(buffer.Lines, "\n") + "\n"
	if err := os.WriteFile(buffer.Name, []byte(data), 0o644); err != nil {
		return fmt.Errorf("E212: Can't open file for writing: %w", err)
	}
	buffer.Modified = false
	e.message(fmt.Sprintf("%q %dL, %dB written", buffer.Name, len(buffer.Lines), len(data)))
	return nil
}

func (e *Editor) closeBuffer(arguments map[string]any) (any, error) {
	buffer, err := e.resolveBuffer(arguments)
	if err != nil {
		return nil, err
	}
	if buffer == nil {
		return errorValue("Buffer not found"), nil
	}
	force, err := boolArg(arguments, "force")
	if err != nil {
		return nil, err
	}
	if err := e.deleteBuffer(buffer, force); err != nil {
		return nil, err
	}
	return fmt.Sprintf("Closed buffer %d", buffer.Number), nil
}

// deleteBuffer removes buffer from the list. Windows showing it switch
// to another listed buffer, or to a new empty one if none is left.
func (e *Editor) deleteBuffer(buffer *Buffer, force bool) error {
	if buffer.Modified && !force {
		return fmt.Errorf("E89: No write since last change for buffer %d (add ! to override)", buffer.Number)
	}

	for i, candidate := range e.buffers {
		if candidate == buffer {
			e.buffers = append(e.buffers[:i], e.buffers[i+1:]...)
			break
		}
	}

	var replacement *Buffer
	for _, candidate := range e.buffers {
		if !candidate.Scratch {
			replacement = candidate
			break
		}
	}
	if replacement == nil {
		replacement = e.newBuffer("")
	}

	for _, tab := range e.tabs {
		for _, w := range tab.windows {
			if w.buffer == buffer {
				w.buffer = replacement
				w.cursor = clampCursor(replacement, replacement.lastCursor)
			}
		}
	}
	return nil
}
