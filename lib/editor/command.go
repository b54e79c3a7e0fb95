// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

func (e *Editor) executeCommand(arguments map[string]any) (any, error) {
	if !e.Permissions().AllowExecute {
		return errorValue("execute_command is disabled. Set permissions.allow_execute to true to enable."), nil
	}
	command, _, err := stringArg(arguments, "command")
	if err != nil {
		return nil, err
	}
	if err := e.ex(command); err != nil {
		e.message(err.Error())
		return nil, err
	}
	return fmt.Sprintf("Executed: %s", command), nil
}

// lineRange is an inclusive 1-based range. explicit is false when the
// command line had no range.
type lineRange struct {
	start, end int
	explicit   bool
}

// ex runs a single Ex command line. The supported subset covers
// ranges (N, N,M, ., $, %), substitute, delete, write, edit, buffer
// navigation, bdelete, tabnew, echo, and the quickfix and location
// window commands.
func (e *Editor) ex(line string) error {
	line = strings.TrimLeft(strings.TrimSpace(line), ":")
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	buffer := e.currentBuffer()
	lines, rest, err := parseRange(line, e.window().cursor.Line, len(buffer.Lines))
	if err != nil {
		return err
	}

	name, bang, argument := splitCommand(rest)
	switch name {
	case "":
		if !lines.explicit {
			return nil
		}
		e.window().cursor = clampCursor(buffer, Position{Line: lines.end, Column: 1})
		return nil

	case "s", "substitute":
		return e.substitute(buffer, lines, argument)

	case "d", "delete":
		if buffer.Locked {
			return errors.New("E21: Cannot make changes, 'modifiable' is off")
		}
		buffer.replaceLines(lines.start-1, lines.end, nil)
		e.clampWindows(buffer)
		return nil

	case "w", "write":
		return e.write(buffer)

	case "e", "edit":
		if argument == "" {
			return nil
		}
		if buffer.Modified && !bang {
			return errors.New("E37: No write since last change (add ! to override)")
		}
		target, err := e.edit(argument)
		if err != nil {
			return err
		}
		e.show(target)
		return nil

	case "b", "buffer":
		number, err := strconv.Atoi(argument)
		if err != nil {
			if target := e.bufferByPath(argument); target != nil {
				e.show(target)
				return nil
			}
			return fmt.Errorf("E94: No matching buffer for %s", argument)
		}
		target := e.bufferByNumber(number)
		if target == nil {
			return fmt.Errorf("E86: Buffer %d does not exist", number)
		}
		e.show(target)
		return nil

	case "bn", "bnext", "bp", "bprevious":
		e.cycleBuffer(name == "bn" || name == "bnext")
		return nil

	case "bd", "bdelete":
		target := buffer
		if argument != "" {
			number, err := strconv.Atoi(argument)
			if err != nil {
				return fmt.Errorf("E94: No matching buffer for %s", argument)
			}
			if target = e.bufferByNumber(number); target == nil {
				return fmt.Errorf("E516: No buffers were deleted: bd %d", number)
			}
		}
		return e.deleteBuffer(target, bang)

	case "tabnew":
		fresh := e.newBuffer("")
		e.tabs = append(e.tabs, &tabPage{windows: []*window{{buffer: fresh, cursor: Position{1, 1}}}})
		e.currentTab = len(e.tabs) - 1
		return nil

	case "copen":
		e.quickfixOpen = true
		return nil
	case "cclose":
		e.quickfixOpen = false
		return nil
	case "lopen":
		e.window().locationsOpen = true
		return nil
	case "lclose":
		e.window().locationsOpen = false
		return nil

	case "echo", "echom", "echomsg":
		e.message(unquote(argument))
		return nil
	}
	return fmt.Errorf("E492: Not an editor command: %s", line)
}

// parseRange consumes a leading range. current and last are the
// cursor line and the buffer length.
func parseRange(line string, current, last int) (lineRange, string, error) {
	if strings.HasPrefix(line, "%") {
		return lineRange{start: 1, end: last, explicit: true}, line[1:], nil
	}

	first, rest, ok, err := parseAddress(line, current, last)
	if err != nil {
		return lineRange{}, "", err
	}
	if !ok {
		return lineRange{start: current, end: current}, line, nil
	}
	result := lineRange{start: first, end: first, explicit: true}

	if strings.HasPrefix(rest, ",") {
		second, after, ok, err := parseAddress(rest[1:], current, last)
		if err != nil {
			return lineRange{}, "", err
		}
		if !ok {
			return lineRange{}, "", errors.New("E14: Invalid address")
		}
		result.end = second
		rest = after
	}

	if result.start > result.end {
		result.start, result.end = result.end, result.start
	}
	if result.start < 1 || result.end > last {
		return lineRange{}, "", errors.New("E16: Invalid range")
	}
	return result, rest, nil
}

func parseAddress(text string, current, last int) (int, string, bool, error) {
	switch {
	case strings.HasPrefix(text, "."):
		return current, text[1:], true, nil
	case strings.HasPrefix(text, "$"):
		return last, text[1:], true, nil
	}
	digits := 0
	for digits < len(text) && text[digits] >= '0' && text[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return 0, text, false, nil
	}
	number, err := strconv.Atoi(text[:digits])
	if err != nil {
		return 0, "", false, errors.New("E14: Invalid address")
	}
	return number, text[digits:], true, nil
}

// splitCommand separates the command name, a trailing bang, and the
// argument. Substitute keeps its delimiter in the argument.
func splitCommand(text string) (name string, bang bool, argument string) {
	end := 0
	for end < len(text) && isLetter(text[end]) {
		end++
	}
	name = text[:end]
	rest := text[end:]

	if (name == "s" || name == "substitute") && rest != "" {
		return name, false, rest
	}
	if strings.HasPrefix(rest, "!") {
		bang = true
		rest = rest[1:]
	}
	return name, bang, strings.TrimSpace(rest)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func unquote(text string) string {
	if unquoted, err := strconv.Unquote(text); err == nil {
		return unquoted
	}
	if len(text) >= 2 && text[0] == '\'' && text[len(text)-1] == '\'' {
		return strings.ReplaceAll(text[1:len(text)-1], "''", "'")
	}
	return text
}

func (e *Editor) cycleBuffer(forward bool) {
	current := e.currentBuffer()
	index := 0
	for i, buffer := range e.buffers {
		if buffer == current {
			index = i
			break
		}
	}
	step := len(e.buffers) - 1
	if forward {
		step = 1
	}
	e.show(e.buffers[(index+step)%len(e.buffers)])
}

// substitute implements :s/pattern/replacement/flags with flags g
// (every match per line) and i (ignore case). The pattern uses Go
// regexp syntax; \N and & in the replacement refer to groups.
func (e *Editor) substitute(buffer *Buffer, lines lineRange, argument string) error {
	if buffer.Locked {
		return errors.New("E21: Cannot make changes, 'modifiable' is off")
	}
	if argument == "" || isLetter(argument[0]) || argument[0] == '\\' {
		return errors.New("E146: Regular expressions can't be delimited by letters")
	}
	parts := splitDelimited(argument[1:], argument[0])
	if len(parts) < 2 {
		return errors.New("E486: Pattern not found")
	}
	pattern, replacement := parts[0], parts[1]
	flags := ""
	if len(parts) > 2 {
		flags = parts[2]
	}

	if strings.Contains(flags, "i") {
		pattern = "(?i)" + pattern
	}
	expression, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("E486: Invalid pattern %s: %w", parts[0], err)
	}
	template := expandTemplate(replacement)
	global := strings.Contains(flags, "g")

	var substitutions, changedLines int
	for number := lines.start; number <= lines.end; number++ {
		original := buffer.Lines[number-1]
		matches := expression.FindAllStringSubmatchIndex(original, -1)
		if len(matches) == 0 {
			continue
		}
		if !global {
			matches = matches[:1]
		}

		var builder strings.Builder
		previous := 0
		for _, match := range matches {
			builder.WriteString(original[previous:match[0]])
			builder.Write(expression.ExpandString(nil, template, original, match))
			previous = match[1]
		}
		builder.WriteString(original[previous:])

		buffer.Lines[number-1] = builder.String()
		substitutions += len(matches)
		changedLines++
	}

	if substitutions == 0 {
		return fmt.Errorf("E486: Pattern not found: %s", parts[0])
	}
	buffer.Modified = true
	if substitutions > 1 {
		e.message(fmt.Sprintf("%d substitutions on %d lines", substitutions, changedLines))
	}
	return nil
}

// splitDelimited splits on delimiter, honoring backslash escapes of
// the delimiter itself.
func splitDelimited(text string, delimiter byte) []string {
	var parts []string
	var current strings.Builder
	for i := 0; i < len(text); i++ {
		switch {
		case text[i] == '\\' && i+1 < len(text) && text[i+1] == delimiter:
			current.WriteByte(delimiter)
			i++
		case text[i] == delimiter:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(text[i])
		}
	}
	return append(parts, current.String())
}

// expandTemplate converts a Vim replacement (\1, &, \&) to a Go
// regexp template.
func expandTemplate(replacement string) string {
	var builder strings.Builder
	for i := 0; i < len(replacement); i++ {
		c := replacement[i]
		switch {
		case c == '\\' && i+1 < len(replacement):
			next := replacement[i+1]
			i++
			switch {
			case next >= '0' && next <= '9':
				fmt.Fprintf(&builder, "${%c}", next)
			case next == '$':
				builder.WriteString("$$")
			default:
				builder.WriteByte(next)
			}
		case c == '&':
			builder.WriteString("${0}")
		case c == '$':
			builder.WriteString("$$")
		default:
			builder.WriteByte(c)
		}
	}
	return builder.String()
}
