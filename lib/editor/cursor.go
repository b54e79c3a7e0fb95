// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"encoding/json"
	"fmt"
	"strings"
)

type cursorInfo struct {
	Buffer int    `json:"buffer"`
	Name   string `json:"name"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (e *Editor) getCursor(map[string]any) (any, error) {
	w := e.window()
	return marshalText(cursorInfo{
		Buffer: w.buffer.Number,
		Name:   w.buffer.DisplayName(),
		Line:   w.cursor.Line,
		Column: w.cursor.Column,
	})
}

func (e *Editor) setCursor(arguments map[string]any) (any, error) {
	line, hasLine, err := intArg(arguments, "line")
	if err != nil {
		return nil, err
	}
	if !hasLine {
		line = 1
	}
	column, hasColumn, err := intArg(arguments, "column")
	if err != nil {
		return nil, err
	}
	if !hasColumn {
		column = 1
	}

	w := e.window()
	if line < 1 || line > len(w.buffer.Lines) {
		return nil, fmt.Errorf("cursor position outside buffer: line %d of %d", line, len(w.buffer.Lines))
	}
	w.cursor = clampCursor(w.buffer, Position{Line: line, Column: column})
	return fmt.Sprintf("Cursor moved to line %d, column %d", line, column), nil
}

var selectionTypeNames = map[string]string{
	SelectCharacterwise: "characterwise",
	SelectLinewise:      "linewise",
	SelectBlockwise:     "blockwise",
}

type selectionInfo struct {
	Type  string   `json:"type"`
	Text  string   `json:"text"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// getVisualSelection reports problems inside the JSON text rather
// than as a tool error, matching how a host without a selection
// answers.
func (e *Editor) getVisualSelection(map[string]any) (any, error) {
	if e.selection == nil || e.selection.Mode == "" {
		return marshalText(errorValue("No visual selection available"))
	}
	selection := *e.selection
	if selection.Start.Line == 0 && selection.End.Line == 0 {
		return marshalText(errorValue("No visual selection marks set"))
	}

	start, end := selection.Start, selection.End
	if start.Line > end.Line || (start.Line == end.Line && start.Column > end.Column) {
		start, end = end, start
	}

	typeName, ok := selectionTypeNames[selection.Mode]
	if !ok {
		typeName = selection.Mode
	}
	return marshalText(selectionInfo{
		Type:  typeName,
		Text:  strings.Join(region(e.currentBuffer(), selection.Mode, start, end), "\n"),
		Start: start,
		End:   end,
	})
}

// region extracts the text between start and end (inclusive) the way
// Vim's getregion() does for each selection type.
func region(buffer *Buffer, mode string, start, end Position) []string {
	if start.Line < 1 || end.Line > len(buffer.Lines) {
		return nil
	}
	lines := buffer.Lines[start.Line-1 : end.Line]

	switch mode {
	case SelectLinewise:
		return append([]string(nil), lines...)
	case SelectBlockwise:
		left, right := min(start.Column, end.Column), max(start.Column, end.Column)
		out := make([]string, len(lines))
		for i, line := range lines {
			out[i] = columns(line, left, right)
		}
		return out
	default:
		if len(lines) == 1 {
			return []string{columns(lines[0], start.Column, end.Column)}
		}
		out := make([]string, len(lines))
		for i, line := range lines {
			switch i {
			case 0:
				out[i] = columns(line, start.Column, len(line))
			case len(lines) - 1:
				out[i] = columns(line, 1, end.Column)
			default:
				out[i] = line
			}
		}
		return out
	}
}

// columns returns the 1-based inclusive byte range [from, to] of
// line, clipped to its length.
func columns(line string, from, to int) string {
	from = max(1, from)
	to = min(len(line), to)
	if from > to {
		return ""
	}
	return line[from-1 : to]
}

func marshalText(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func (e *Editor) getMessages(map[string]any) (any, error) {
	return "\n" + strings.Join(e.messages, "\n"), nil
}
