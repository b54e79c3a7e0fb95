// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the bursts of events one save produces.
const reloadDelay = 100 * time.Millisecond

// Watch reloads path whenever it changes and passes each valid
// result to onChange. A file that fails to parse or validate is
// logged and skipped; the previous configuration stays in effect.
// Blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file so editors
// that save by rename are still seen.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	absolute, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(absolute)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(absolute), err)
	}
	logger.Info("watching config", "path", absolute)

	// Stopped until the first relevant event.
	reload := time.NewTimer(time.Hour)
	reload.Stop()
	defer reload.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absolute {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			reload.Reset(reloadDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher error", "error", err)

		case <-reload.C:
			cfg, err := LoadFile(absolute)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				logger.Error("ignoring config change", "path", absolute, "error", err)
				continue
			}
			logger.Info("config reloaded", "path", absolute)
			onChange(cfg)
		}
	}
}
