// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"encoding/json"
	"fmt"
	"math"
)

// Arguments arrive decoded from JSON (float64, json.Number) or CBOR
// (uint64, int64), so the accessors accept every numeric shape.

// intArg returns the integer argument key. A missing or null key
// reports ok=false; a non-integral value is an error.
func intArg(arguments map[string]any, key string) (value int, ok bool, err error) {
	raw, present := arguments[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch typed := raw.(type) {
	case int:
		return typed, true, nil
	case int64:
		return int(typed), true, nil
	case uint64:
		if typed > math.MaxInt32 {
			return 0, false, fmt.Errorf("%s: %d is out of range", key, typed)
		}
		return int(typed), true, nil
	case float64:
		if typed != math.Trunc(typed) {
			return 0, false, fmt.Errorf("%s: expected an integer, got %v", key, typed)
		}
		return int(typed), true, nil
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			return 0, false, fmt.Errorf("%s: expected an integer, got %s", key, typed)
		}
		return int(parsed), true, nil
	default:
		return 0, false, fmt.Errorf("%s: expected an integer, got %T", key, raw)
	}
}

func stringArg(arguments map[string]any, key string) (value string, ok bool, err error) {
	raw, present := arguments[key]
	if !present || raw == nil {
		return "", false, nil
	}
	text, isString := raw.(string)
	if !isString {
		return "", false, fmt.Errorf("%s: expected a string, got %T", key, raw)
	}
	return text, true, nil
}

func boolArg(arguments map[string]any, key string) (bool, error) {
	raw, present := arguments[key]
	if !present || raw == nil {
		return false, nil
	}
	flag, isBool := raw.(bool)
	if !isBool {
		return false, fmt.Errorf("%s: expected a boolean, got %T", key, raw)
	}
	return flag, nil
}

// stringsArg returns a list-of-strings argument.
func stringsArg(arguments map[string]any, key string) (lines []string, ok bool, err error) {
	raw, present := arguments[key]
	if !present || raw == nil {
		return nil, false, nil
	}
	switch typed := raw.(type) {
	case []string:
		return append([]string(nil), typed...), true, nil
	case []any:
		lines = make([]string, len(typed))
		for i, element := range typed {
			text, isString := element.(string)
			if !isString {
				return nil, false, fmt.Errorf("%s[%d]: expected a string, got %T", key, i, element)
			}
			lines[i] = text
		}
		return lines, true, nil
	default:
		return nil, false, fmt.Errorf("%s: expected a list of strings, got %T", key, raw)
	}
}

// objectsArg returns a list-of-objects argument.
func objectsArg(arguments map[string]any, key string) ([]map[string]any, error) {
	raw, present := arguments[key]
	if !present || raw == nil {
		return nil, nil
	}
	switch typed := raw.(type) {
	case []map[string]any:
		return typed, nil
	case []any:
		objects := make([]map[string]any, len(typed))
		for i, element := range typed {
			object, isObject := element.(map[string]any)
			if !isObject {
				return nil, fmt.Errorf("%s[%d]: expected an object, got %T", key, i, element)
			}
			objects[i] = object
		}
		return objects, nil
	default:
		return nil, fmt.Errorf("%s: expected a list, got %T", key, raw)
	}
}
