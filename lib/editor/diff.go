// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"fmt"
	"strings"
)

func (e *Editor) showDiff(arguments map[string]any) (any, error) {
	fileA, hasFileA, err := stringArg(arguments, "file_a")
	if err != nil {
		return nil, err
	}
	fileB, hasFileB, err := stringArg(arguments, "file_b")
	if err != nil {
		return nil, err
	}
	contentA, hasContentA, err := stringArg(arguments, "content_a")
	if err != nil {
		return nil, err
	}
	contentB, hasContentB, err := stringArg(arguments, "content_b")
	if err != nil {
		return nil, err
	}

	hasFiles := hasFileA && hasFileB
	hasContent := hasContentA && hasContentB
	if !hasFiles && !hasContent {
		return errorValue("Provide either file_a and file_b (file mode) or content_a and content_b (content mode)."), nil
	}

	if hasFiles {
		left, err := e.edit(fileA)
		if err != nil {
			return nil, err
		}
		right, err := e.edit(fileB)
		if err != nil {
			return nil, err
		}
		e.openDiffTab(left, right)
		return fmt.Sprintf("Showing diff in new tab: %s vs %s", fileA, fileB), nil
	}

	labelA, hasLabelA, err := stringArg(arguments, "label_a")
	if err != nil {
		return nil, err
	}
	if !hasLabelA {
		labelA = "a"
	}
	labelB, hasLabelB, err := stringArg(arguments, "label_b")
	if err != nil {
		return nil, err
	}
	if !hasLabelB {
		labelB = "b"
	}

	e.openDiffTab(e.scratchBuffer(labelA, contentA), e.scratchBuffer(labelB, contentB))
	return fmt.Sprintf("Showing diff in new tab: %s vs %s", labelA, labelB), nil
}

func (e *Editor) scratchBuffer(label, content string) *Buffer {
	buffer := e.newBuffer(label)
	buffer.Lines = strings.Split(content, "\n")
	buffer.Scratch = true
	return buffer
}

// openDiffTab opens a new tab page with left and right side by side
// in diff mode. Both sides become read-only and the right window has
// focus.
func (e *Editor) openDiffTab(left, right *Buffer) {
	left.Locked = true
	right.Locked = true
	e.tabs = append(e.tabs, &tabPage{
		windows: []*window{
			{buffer: left, cursor: Position{1, 1}, diff: true},
			{buffer: right, cursor: Position{1, 1}, diff: true},
		},
		current: 1,
	})
	e.currentTab = len(e.tabs) - 1
}
