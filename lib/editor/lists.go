// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"fmt"
)

// Entry is one quickfix or location list item.
type Entry struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Text     string `json:"text"`
	Type     string `json:"type"`
}

// List is a titled quickfix or location list.
type List struct {
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

func (e *Editor) getQuickfixList(map[string]any) (any, error) {
	return marshalText(normalizeList(e.quickfix))
}

func (e *Editor) setQuickfixList(arguments map[string]any) (any, error) {
	list, open, err := parseList(arguments)
	if err != nil {
		return nil, err
	}
	e.quickfix = list
	if open {
		e.quickfixOpen = true
	}
	return fmt.Sprintf("Set %d quickfix entries", len(list.Entries)), nil
}

func (e *Editor) getLocationList(map[string]any) (any, error) {
	return marshalText(normalizeList(e.window().locations))
}

func (e *Editor) setLocationList(arguments map[string]any) (any, error) {
	list, open, err := parseList(arguments)
	if err != nil {
		return nil, err
	}
	w := e.window()
	w.locations = list
	if open {
		w.locationsOpen = true
	}
	return fmt.Sprintf("Set %d location list entries", len(list.Entries)), nil
}

// normalizeList makes an empty list encode entries as [] not null.
func normalizeList(list List) List {
	if list.Entries == nil {
		list.Entries = []Entry{}
	}
	return list
}

// parseList reads entries, title, and open. Entries need filename,
// line, and text; column and type are optional.
func parseList(arguments map[string]any) (List, bool, error) {
	objects, err := objectsArg(arguments, "entries")
	if err != nil {
		return List{}, false, err
	}
	title, _, err := stringArg(arguments, "title")
	if err != nil {
		return List{}, false, err
	}
	open, err := boolArg(arguments, "open")
	if err != nil {
		return List{}, false, err
	}

	entries := make([]Entry, 0, len(objects))
	for i, object := range objects {
		filename, hasFilename, err := stringArg(object, "filename")
		if err != nil {
			return List{}, false, fmt.Errorf("entries[%d].%w", i, err)
		}
		line, hasLine, err := intArg(object, "line")
		if err != nil {
			return List{}, false, fmt.Errorf("entries[%d].%w", i, err)
		}
		text, hasText, err := stringArg(object, "text")
		if err != nil {
			return List{}, false, fmt.Errorf("entries[%d].%w", i, err)
		}
		if !hasFilename || !hasLine || !hasText {
			return List{}, false, fmt.Errorf("entries[%d]: filename, line, and text are required", i)
		}
		column, _, err := intArg(object, "column")
		if err != nil {
			return List{}, false, fmt.Errorf("entries[%d].%w", i, err)
		}
		kind, _, err := stringArg(object, "type")
		if err != nil {
			return List{}, false, fmt.Errorf("entries[%d].%w", i, err)
		}
		entries = append(entries, Entry{
			Filename: filename,
			Line:     line,
			Column:   column,
			Text:     text,
			Type:     kind,
		})
	}
	return List{Title: title, Entries: entries}, open, nil
}
