// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/hostmcp/lib/config"
	"github.com/bureau-foundation/hostmcp/lib/editor"
)

// LoadConfig resolves the configuration the way every hostmcp binary
// does: an explicit path wins, then HOSTMCP_CONFIG, then Default.
// It returns the path that was loaded, empty for defaults.
func LoadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		path = os.Getenv(config.EnvironmentVariable)
	}
	if path == "" {
		return config.Default(), "", nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, path, nil
}

// EditorPermissions converts configured permissions to the editor's.
func EditorPermissions(permissions config.Permissions) editor.Permissions {
	return editor.Permissions{
		AllowEdit:    permissions.AllowEdit,
		AllowSave:    permissions.AllowSave,
		AllowExecute: permissions.AllowExecute,
	}
}
