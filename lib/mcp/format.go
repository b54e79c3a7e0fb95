// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
)

// ContentBlock is an MCP text content block.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// ToolResult is the result of tools/call. Content elements are
// ContentBlock values unless a tool returned its own list of blocks,
// which is passed through as is.
type ToolResult struct {
	Content []any `json:"content"`
	IsError bool  `json:"isError,omitempty"`
}

func errorResult(message string) ToolResult {
	return ToolResult{Content: []any{TextBlock(message)}, IsError: true}
}

// FormatToolResult turns the outcome of a tool invocation into a
// tools/call result:
//
//   - a non-nil err becomes a single text block with isError set
//   - a callbridge.Result of kind Failure or Unknown, or a map with
//     an "error" key, is formatted the same way
//   - a string becomes one text block
//   - a list of content blocks passes through unchanged
//   - nil becomes an empty text block
//   - anything else is rendered as JSON, or with %v if that fails
func FormatToolResult(value any, err error) ToolResult {
	if err != nil {
		return errorResult(err.Error())
	}

	switch typed := value.(type) {
	case callbridge.Result:
		if !typed.OK() {
			return errorResult(typed.Message)
		}
		return FormatToolResult(typed.Value, nil)
	case map[string]any:
		if message, ok := typed["error"]; ok {
			return errorResult(stringify(message))
		}
	case string:
		return ToolResult{Content: []any{TextBlock(typed)}}
	case []ContentBlock:
		content := make([]any, len(typed))
		for i, block := range typed {
			content[i] = block
		}
		return ToolResult{Content: content}
	case []any:
		return ToolResult{Content: typed}
	case []map[string]any:
		content := make([]any, len(typed))
		for i, block := range typed {
			content[i] = block
		}
		return ToolResult{Content: content}
	case nil:
		return ToolResult{Content: []any{TextBlock("")}}
	}

	return ToolResult{Content: []any{TextBlock(stringify(value))}}
}

func stringify(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	case error:
		return typed.Error()
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(encoded)
}
