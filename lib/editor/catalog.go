// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editor

import (
	_ "embed"
	"fmt"
	"slices"

	"github.com/bureau-foundation/hostmcp/lib/toolspec"
)

//go:embed catalog.jsonc
var catalogSource []byte

// CatalogSource returns the embedded JSONC tool catalog.
func CatalogSource() []byte { return catalogSource }

// Registry parses the embedded catalog and checks that it declares
// exactly the commands the editor implements.
func Registry() (*toolspec.Registry, error) {
	specs, err := toolspec.ParseCatalog(catalogSource)
	if err != nil {
		return nil, err
	}
	registry, err := toolspec.NewRegistry(specs...)
	if err != nil {
		return nil, fmt.Errorf("editor catalog: %w", err)
	}

	for _, spec := range specs {
		if _, ok := commands[spec.Name]; !ok {
			return nil, fmt.Errorf("editor catalog declares %q, which the editor does not implement", spec.Name)
		}
	}
	implemented := Commands()
	slices.Sort(implemented)
	for _, name := range implemented {
		if _, ok := registry.Lookup(name); !ok {
			return nil, fmt.Errorf("editor command %q is missing from the catalog", name)
		}
	}
	return registry, nil
}
