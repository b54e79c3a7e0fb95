// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package toolspec holds the static catalog of tools a host exposes:
// each tool's name, description, and JSON Schema for its arguments.
//
// Catalogs are authored as JSONC (JSON with comments and trailing
// commas) and parsed with [ParseCatalog]. A [Registry] is built once
// at startup and never mutated; routers only look tools up and list
// them.
package toolspec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
	"github.com/zeebo/blake3"
)

// ToolSpec describes one tool. InputSchema is passed through to
// tools/list untouched.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// emptySchema is used for a tool declared without inputSchema.
var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

// Registry is a name-indexed, ordered, immutable set of tools.
type Registry struct {
	specs  []ToolSpec
	byName map[string]int
}

// NewRegistry builds a registry preserving declaration order. Empty
// and duplicate names are rejected; every problem is reported.
func NewRegistry(specs ...ToolSpec) (*Registry, error) {
	registry := &Registry{
		specs:  make([]ToolSpec, 0, len(specs)),
		byName: make(map[string]int, len(specs)),
	}

	var errs []error
	for i, spec := range specs {
		if spec.Name == "" {
			errs = append(errs, fmt.Errorf("tool %d: name is required", i))
			continue
		}
		if _, exists := registry.byName[spec.Name]; exists {
			errs = append(errs, fmt.Errorf("tool %d: duplicate name %q", i, spec.Name))
			continue
		}
		if len(spec.InputSchema) == 0 {
			spec.InputSchema = emptySchema
		}
		registry.byName[spec.Name] = len(registry.specs)
		registry.specs = append(registry.specs, spec)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return registry, nil
}

// Lookup returns the tool named name.
func (r *Registry) Lookup(name string) (ToolSpec, bool) {
	index, ok := r.byName[name]
	if !ok {
		return ToolSpec{}, false
	}
	return r.specs[index], true
}

// List returns every tool in declaration order. The slice is a copy.
func (r *Registry) List() []ToolSpec {
	return append([]ToolSpec(nil), r.specs...)
}

// Len returns the number of tools.
func (r *Registry) Len() int { return len(r.specs) }

// catalogFile is the on-disk catalog shape, matching a tools/list
// result.
type catalogFile struct {
	Tools []ToolSpec `json:"tools"`
}

// ParseCatalog parses a JSONC catalog of the form
// {"tools": [{"name", "description", "inputSchema"}, ...]}.
func ParseCatalog(data []byte) ([]ToolSpec, error) {
	stripped := jsonc.ToJSON(data)

	var catalog catalogFile
	if err := json.Unmarshal(stripped, &catalog); err != nil {
		return nil, fmt.Errorf("parsing tool catalog: %w", err)
	}
	if catalog.Tools == nil {
		return nil, errors.New("parsing tool catalog: missing \"tools\" array")
	}
	return catalog.Tools, nil
}

// ReadCatalog reads and parses a JSONC catalog file.
func ReadCatalog(path string) ([]ToolSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	specs, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// fingerprintKey separates catalog fingerprints from any other
// BLAKE3 use. ASCII name, zero-padded to 32 bytes.
var fingerprintKey = [32]byte{
	'h', 'o', 's', 't', 'm', 'c', 'p', '.', 't', 'o', 'o', 'l', 's', 'p', 'e', 'c',
	'.', 'c', 'a', 't', 'a', 'l', 'o', 'g',
}

// Fingerprint returns a hex BLAKE3 keyed hash of the catalog in
// declaration order with schemas compacted, so comments and
// whitespace in the source file do not change it.
func (r *Registry) Fingerprint() string {
	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		panic("toolspec: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	for _, spec := range r.specs {
		var schema bytes.Buffer
		if err := json.Compact(&schema, spec.InputSchema); err != nil {
			schema.Reset()
			schema.Write(spec.InputSchema)
		}
		canonical, _ := json.Marshal(ToolSpec{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: schema.Bytes(),
		})
		hasher.Write(canonical)
		hasher.Write([]byte{'\n'})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
