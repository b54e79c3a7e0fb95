// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// hostmcp exposes an editor's tools to MCP clients over HTTP.
//
// Tool calls arrive on POST /mcp and are queued on a call bridge. An
// executor drains the queue on the host side and posts each result
// back to the waiting request. With --executor builtin (the default)
// the executor is an in-process editor. With --executor socket,
// requests wait for an external host (hostmcp-host, or an editor
// plugin speaking the same protocol) to attach to --socket.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/hostmcp/lib/cli"
	"github.com/bureau-foundation/hostmcp/lib/config"
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
		listen      string
		socketPath  string
		executor    string
		catalog     string
		verbose     bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("hostmcp", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to hostmcp.yaml (default: $HOSTMCP_CONFIG, else built-in defaults)")
	flagSet.StringVar(&listen, "listen", "", "HTTP listen address (overrides config listen)")
	flagSet.StringVar(&socketPath, "socket", "", "host socket path (overrides config socket_path)")
	flagSet.StringVar(&executor, "executor", "", "builtin or socket (overrides config executor)")
	flagSet.StringVar(&catalog, "catalog", "", "JSONC tool catalog to serve instead of the editor's")
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
		version.Print("hostmcp")
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, loadedPath, err := cli.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if flagSet.Changed("listen") {
		cfg.Listen = listen
	}
	if flagSet.Changed("socket") {
		cfg.SocketPath = socketPath
	}
	if flagSet.Changed("executor") {
		cfg.Executor = config.Executor(executor)
	}
	if flagSet.Changed("catalog") {
		cfg.Catalog = catalog
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := cli.NewLogger(verbose)

	if cfg.LockFile != "" {
		lock, err := config.AcquireLock(cfg.LockFile)
		if err != nil {
			return fmt.Errorf("another hostmcp may be running: %w", err)
		}
		defer lock.Release()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, err := newServer(cfg, loadedPath, logger)
	if err != nil {
		return err
	}
	return server.run(ctx)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `hostmcp serves an editor's tools to MCP clients over streamable HTTP.

Requests are answered by an executor on the host side: the built-in
in-memory editor, or an external host attached to the host socket.

Usage:
  hostmcp [flags]

Examples:
  # Serve the built-in editor on the default address
  hostmcp

  # Wait for an external host on a socket
  hostmcp --executor socket --socket $XDG_RUNTIME_DIR/hostmcp.sock

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
