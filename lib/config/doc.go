// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the hostmcp YAML configuration.
//
// Configuration comes from a single file named by the --config flag
// (via [LoadFile]) or the HOSTMCP_CONFIG environment variable (via
// [Load]). There is no discovery. Without a file, [Default] is used
// as is. Values the file omits keep their defaults.
//
// The file may carry development and production sections that
// override base values when [Config].Environment matches. Production
// without an explicit section disables every editor permission.
//
// ${VAR} and ${VAR:-default} are expanded in path fields after
// loading. No other environment variables override config values.
//
// [Watch] reloads the file on change so permission edits reach a
// running editor, and [AcquireLock] keeps a second server from
// sharing the same socket and listen address.
package config
