// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/hostmcp/lib/callbridge"
	"github.com/bureau-foundation/hostmcp/lib/cli"
	"github.com/bureau-foundation/hostmcp/lib/clock"
	"github.com/bureau-foundation/hostmcp/lib/config"
	"github.com/bureau-foundation/hostmcp/lib/editor"
	"github.com/bureau-foundation/hostmcp/lib/executor"
	"github.com/bureau-foundation/hostmcp/lib/hostsocket"
	"github.com/bureau-foundation/hostmcp/lib/mcp"
	"github.com/bureau-foundation/hostmcp/lib/mcphttp"
	"github.com/bureau-foundation/hostmcp/lib/session"
	"github.com/bureau-foundation/hostmcp/lib/tooldispatch"
	"github.com/bureau-foundation/hostmcp/lib/toolspec"
)

// server is one assembled hostmcp process.
type server struct {
	config     *config.Config
	configPath string
	logger     *slog.Logger

	bridge *callbridge.Bridge
	http   *mcphttp.Server
	socket *hostsocket.Server

	// editor and loop are nil unless the executor is builtin.
	editor *editor.Editor
	loop   *executor.Loop
}

func newServer(cfg *config.Config, configPath string, logger *slog.Logger) (*server, error) {
	registry, err := loadRegistry(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	clk := clock.Real()
	bridge := callbridge.New(clk, logger)
	sessions := session.NewManager(clk)
	dispatcher := tooldispatch.New(registry, bridge, cfg.CallTimeout)
	router := mcp.NewRouter(registry, dispatcher, sessions, logger)

	handler := mcphttp.NewHandler(mcphttp.HandlerConfig{
		Router:      router,
		Sessions:    sessions,
		Stats:       bridge,
		Fingerprint: registry.Fingerprint(),
		Tools:       registry.Len(),
		Logger:      logger,
	})

	s := &server{
		config:     cfg,
		configPath: configPath,
		logger:     logger,
		bridge:     bridge,
		http: mcphttp.NewServer(mcphttp.ServerConfig{
			Address:     cfg.Listen,
			Handler:     handler,
			CallTimeout: cfg.CallTimeout,
			Logger:      logger,
		}),
	}
	switch cfg.Executor {
	case config.ExecutorSocket:
		s.socket = hostsocket.NewServer(cfg.SocketPath, bridge, logger)
	case config.ExecutorBuiltin:
		s.editor = editor.New(editor.Config{
			Root:        cfg.Root,
			Permissions: cli.EditorPermissions(cfg.Permissions),
			Logger:      logger,
		})
		s.loop = &executor.Loop{
			Mailbox:       executor.Local(bridge),
			Environment:   s.editor,
			Clock:         clk,
			Interval:      cfg.PollInterval,
			Wake:          bridge.Ready(),
			SkipAbandoned: cfg.SkipAbandoned,
			Logger:        logger,
		}
	}

	logger.Info("hostmcp configured",
		"listen", cfg.Listen,
		"executor", cfg.Executor,
		"socket", cfg.SocketPath,
		"tools", registry.Len(),
		"catalog_fingerprint", registry.Fingerprint(),
	)
	return s, nil
}

func loadRegistry(catalogPath string) (*toolspec.Registry, error) {
	if catalogPath == "" {
		return editor.Registry()
	}
	specs, err := toolspec.ReadCatalog(catalogPath)
	if err != nil {
		return nil, err
	}
	registry, err := toolspec.NewRegistry(specs...)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", catalogPath, err)
	}
	return registry, nil
}

// run starts every component and returns when ctx ends or any
// component fails.
func (s *server) run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error { return s.http.Serve(ctx) })
	if s.socket != nil {
		group.Go(func() error { return s.socket.Serve(ctx) })
	}
	if s.loop != nil {
		group.Go(func() error { return s.loop.Run(ctx) })
		if s.configPath != "" {
			group.Go(func() error {
				return config.Watch(ctx, s.configPath, s.logger, s.applyConfig)
			})
		}
	}

	err := group.Wait()
	if stats := s.bridge.Snapshot(); stats.Pending > 0 {
		s.logger.Info("stopped with calls in flight", "pending", stats.Pending, "queued", stats.Queued)
	}
	return err
}

// applyConfig installs the live-reloadable part of a new config.
// Listen, socket, and executor changes need a restart.
func (s *server) applyConfig(cfg *config.Config) {
	s.editor.SetPermissions(cli.EditorPermissions(cfg.Permissions))
	if cfg.Listen != s.config.Listen || cfg.SocketPath != s.config.SocketPath || cfg.Executor != s.config.Executor {
		s.logger.Info("config change needs a restart to take effect",
			"listen", cfg.Listen,
			"socket", cfg.SocketPath,
			"executor", cfg.Executor,
		)
	}
}
