// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// hostmcp-host runs the built-in editor as an out-of-process host for
// a hostmcp server started with --executor socket.
//
// It long-polls the server's host socket for queued commands, runs
// them in order against its editor, and posts each result back. The
// editor's permissions follow the config file and reload when it
// changes.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/bureau-foundation/hostmcp/lib/cli"
	"github.com/bureau-foundation/hostmcp/lib/clock"
	"github.com/bureau-foundation/hostmcp/lib/config"
	"github.com/bureau-foundation/hostmcp/lib/editor"
	"github.com/bureau-foundation/hostmcp/lib/executor"
	"github.com/bureau-foundation/hostmcp/lib/hostsocket"
	"github.com/bureau-foundation/hostmcp/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		socketPath  string
		root        string
		verbose     bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("hostmcp-host", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to hostmcp.yaml (default: $HOSTMCP_CONFIG, else built-in defaults)")
	flagSet.StringVar(&socketPath, "socket", "", "host socket of the hostmcp server (overrides config socket_path)")
	flagSet.StringVar(&root, "root", "", "editor working directory (overrides config root)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		version.Print("hostmcp-host")
		return nil
	}

	cfg, loadedPath, err := cli.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("socket") {
		cfg.SocketPath = socketPath
	}
	if flagSet.Changed("root") {
		cfg.Root = root
	}
	// The host is the socket executor by definition.
	cfg.Executor = config.ExecutorSocket
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := cli.NewLogger(verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runHost(ctx, cfg, loadedPath, logger)
}

// runHost drives an editor from the socket until ctx ends.
func runHost(ctx context.Context, cfg *config.Config, configPath string, logger *slog.Logger) error {
	client := hostsocket.NewClient(cfg.SocketPath)
	environment := editor.New(editor.Config{
		Root:        cfg.Root,
		Permissions: cli.EditorPermissions(cfg.Permissions),
		Logger:      logger,
	})

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		loop := &executor.Loop{
			Mailbox:       client,
			Environment:   environment,
			Clock:         clock.Real(),
			Interval:      cfg.PollInterval,
			Wake:          client.Watch(ctx, time.Second),
			SkipAbandoned: cfg.SkipAbandoned,
			Logger:        logger.With("socket", cfg.SocketPath),
		}
		return loop.Run(ctx)
	})
	if configPath != "" {
		group.Go(func() error {
			return config.Watch(ctx, configPath, logger, func(updated *config.Config) {
				environment.SetPermissions(cli.EditorPermissions(updated.Permissions))
			})
		})
	}
	return group.Wait()
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `hostmcp-host runs the built-in editor against a hostmcp host socket.

Usage:
  hostmcp-host --socket PATH [flags]

Examples:
  hostmcp --executor socket --socket /tmp/hostmcp.sock &
  hostmcp-host --socket /tmp/hostmcp.sock --root ~/src/project

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
