// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file for Load.
const EnvironmentVariable = "HOSTMCP_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local use next to an editor.
	Development Environment = "development"
	// Production is for shared or long-running hosts.
	Production Environment = "production"
)

// Executor selects who runs queued commands.
type Executor string

const (
	// ExecutorBuiltin runs the in-process editor.
	ExecutorBuiltin Executor = "builtin"
	// ExecutorSocket waits for an external host on the host socket.
	ExecutorSocket Executor = "socket"
)

// Config is the hostmcp configuration.
type Config struct {
	// Environment selects which override section applies.
	Environment Environment `yaml:"environment"`

	// Listen is the HTTP listen address.
	// Default: 127.0.0.1:8765
	Listen string `yaml:"listen"`

	// SocketPath is the host socket. Required when Executor is
	// socket and unused otherwise: one bridge has one executor.
	SocketPath string `yaml:"socket_path"`

	// Executor is builtin or socket.
	// Default: builtin
	Executor Executor `yaml:"executor"`

	// Root is the editor's working directory. Relative file paths in
	// tool arguments resolve against it.
	// Default: .
	Root string `yaml:"root"`

	// Catalog, if set, is a JSONC tool catalog served instead of the
	// built-in editor's. Meant for socket hosts that implement other
	// tools.
	Catalog string `yaml:"catalog"`

	// CallTimeout bounds how long a tools/call waits for the host.
	// Default: 30s
	CallTimeout time.Duration `yaml:"call_timeout"`

	// PollInterval is the executor's poll period.
	// Default: 50ms
	PollInterval time.Duration `yaml:"poll_interval"`

	// LockFile, if set, is flocked for the life of the server.
	LockFile string `yaml:"lock_file"`

	// SkipAbandoned drops queued commands whose caller has already
	// timed out.
	SkipAbandoned bool `yaml:"skip_abandoned"`

	// Permissions gate the editor's mutating tools.
	Permissions Permissions `yaml:"permissions"`

	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Permissions gate the editor's mutating tools. All default to false.
type Permissions struct {
	AllowEdit    bool `yaml:"allow_edit"`
	AllowSave    bool `yaml:"allow_save"`
	AllowExecute bool `yaml:"allow_execute"`
}

// Overrides holds the fields an environment section may override.
// Nil pointers leave the base value alone.
type Overrides struct {
	Listen        *string               `yaml:"listen,omitempty"`
	SocketPath    *string               `yaml:"socket_path,omitempty"`
	Executor      *Executor             `yaml:"executor,omitempty"`
	Root          *string               `yaml:"root,omitempty"`
	Catalog       *string               `yaml:"catalog,omitempty"`
	CallTimeout   *time.Duration        `yaml:"call_timeout,omitempty"`
	PollInterval  *time.Duration        `yaml:"poll_interval,omitempty"`
	LockFile      *string               `yaml:"lock_file,omitempty"`
	SkipAbandoned *bool                 `yaml:"skip_abandoned,omitempty"`
	Permissions   *PermissionsOverrides `yaml:"permissions,omitempty"`
}

// PermissionsOverrides overrides individual permissions.
type PermissionsOverrides struct {
	AllowEdit    *bool `yaml:"allow_edit,omitempty"`
	AllowSave    *bool `yaml:"allow_save,omitempty"`
	AllowExecute *bool `yaml:"allow_execute,omitempty"`
}

// Default returns the configuration used when no file is given and
// the base a file is merged into.
func Default() *Config {
	return &Config{
		Environment:  Development,
		Listen:       "127.0.0.1:8765",
		Executor:     ExecutorBuiltin,
		Root:         ".",
		CallTimeout:  30 * time.Second,
		PollInterval: 50 * time.Millisecond,
	}
}

// Load loads the file named by HOSTMCP_CONFIG. It fails if the
// variable is unset; callers that can run on defaults check the
// variable themselves.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your hostmcp.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path over Default, applies the
// matching environment section, and expands path variables. It does
// not validate.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse is LoadFile for in-memory YAML.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		if overrides == nil {
			disabled := false
			overrides = &Overrides{
				Permissions: &PermissionsOverrides{
					AllowEdit:    &disabled,
					AllowSave:    &disabled,
					AllowExecute: &disabled,
				},
			}
		}
	}
	if overrides == nil {
		return
	}

	setIf(&c.Listen, overrides.Listen)
	setIf(&c.SocketPath, overrides.SocketPath)
	setIf(&c.Executor, overrides.Executor)
	setIf(&c.Root, overrides.Root)
	setIf(&c.Catalog, overrides.Catalog)
	setIf(&c.CallTimeout, overrides.CallTimeout)
	setIf(&c.PollInterval, overrides.PollInterval)
	setIf(&c.LockFile, overrides.LockFile)
	setIf(&c.SkipAbandoned, overrides.SkipAbandoned)
	if permissions := overrides.Permissions; permissions != nil {
		setIf(&c.Permissions.AllowEdit, permissions.AllowEdit)
		setIf(&c.Permissions.AllowSave, permissions.AllowSave)
		setIf(&c.Permissions.AllowExecute, permissions.AllowExecute)
	}
}

func setIf[T any](target *T, override *T) {
	if override != nil {
		*target = *override
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":            os.Getenv("HOME"),
		"XDG_RUNTIME_DIR": os.Getenv("XDG_RUNTIME_DIR"),
	}
	c.SocketPath = expandVars(c.SocketPath, vars)
	c.Root = expandVars(c.Root, vars)
	c.Catalog = expandVars(c.Catalog, vars)
	c.LockFile = expandVars(c.LockFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. Provided vars win
// over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}

	if c.Listen == "" {
		errs = append(errs, errors.New("listen is required"))
	} else if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		errs = append(errs, fmt.Errorf("listen: %w", err))
	}

	switch c.Executor {
	case ExecutorBuiltin:
	case ExecutorSocket:
		if c.SocketPath == "" {
			errs = append(errs, errors.New("socket_path is required when executor is socket"))
		}
	default:
		errs = append(errs, fmt.Errorf("executor must be %q or %q, got %q", ExecutorBuiltin, ExecutorSocket, c.Executor))
	}

	if c.SocketPath != "" && !filepath.IsAbs(c.SocketPath) {
		errs = append(errs, fmt.Errorf("socket_path must be absolute: %s", c.SocketPath))
	}
	if c.CallTimeout <= 0 {
		errs = append(errs, fmt.Errorf("call_timeout must be positive, got %s", c.CallTimeout))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.Root == "" {
		errs = append(errs, errors.New("root is required"))
	}

	return errors.Join(errs...)
}
