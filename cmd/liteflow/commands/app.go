// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/liteflow/cmd/liteflow/cli"
	"github.com/bureau-foundation/liteflow/lib/clock"
	"github.com/bureau-foundation/liteflow/lib/config"
	"github.com/bureau-foundation/liteflow/lib/rulestore"
	"github.com/bureau-foundation/liteflow/lib/schema/task"
	"github.com/bureau-foundation/liteflow/lib/taskservice"
	"github.com/bureau-foundation/liteflow/lib/taskstore"
	"github.com/bureau-foundation/liteflow/lib/workflow"
)

// environment is what the command tree needs from the process.
type environment struct {
	stdout io.Writer

	// logOutput receives structured logs. An *os.File so the logger
	// can tell a terminal from a pipe.
	logOutput *os.File

	clock clock.Clock
}

// globalParams are embedded in every command's parameters.
type globalParams struct {
	ConfigPath string `json:"-" flag:"config" desc:"configuration file (default $LITEFLOW_CONFIG, then built-in defaults)"`
	Database   string `json:"-" flag:"db" desc:"task database file, or :memory: (overrides paths.database)"`
	Rules      string `json:"-" flag:"rules" desc:"workflow rule file (overrides paths.rules)"`
}

// backend is a task store that can also be dumped and restored.
type backend interface {
	taskservice.Store
	Dump(ctx context.Context) (task.Dataset, error)
	Restore(ctx context.Context, dataset task.Dataset) error
	Close() error
}

// app is the wired application for one command invocation.
type app struct {
	config   *config.Config
	logger   *slog.Logger
	store    backend
	rules    *rulestore.Source
	registry *prometheus.Registry
	metrics  *workflow.Metrics
	engine   *workflow.Engine
	service  *taskservice.Service
	clock    clock.Clock
}

// loadConfig resolves the configuration and applies the path flags.
func (g *globalParams) loadConfig() (*config.Config, error) {
	cfg, err := config.Resolve(g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if g.Database != "" {
		cfg.Paths.Database = g.Database
	}
	if g.Rules != "" {
		cfg.Paths.Rules = g.Rules
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// logger builds the command logger from cfg.
func (env environment) logger(cfg *config.Config, command string) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewCommandLogger(cli.LoggerConfig{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: env.logOutput,
	})
	if err != nil {
		return nil, err
	}
	return logger.With("command", command), nil
}

// open wires the store, rule source, metrics, engine, and service.
// The caller must Close the result.
func (g *globalParams) open(ctx context.Context, env environment, command string) (*app, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := env.logger(cfg, command)
	if err != nil {
		return nil, err
	}

	var store backend
	if cfg.InMemory() {
		store = taskstore.NewMemory()
	} else {
		if err := cfg.EnsurePaths(); err != nil {
			return nil, err
		}
		opened, err := taskstore.Open(ctx, taskstore.Config{
			Path:     cfg.Paths.Database,
			PoolSize: cfg.Store.PoolSize,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		store = opened
	}

	application, err := wire(cfg, logger, store, env.clock)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Debug("application opened",
		"database", cfg.Paths.Database,
		"rules", cfg.Paths.Rules,
		"environment", cfg.Environment,
	)
	return application, nil
}

func wire(cfg *config.Config, logger *slog.Logger, store backend, clk clock.Clock) (*app, error) {
	registry := prometheus.NewRegistry()
	metrics, err := workflow.NewMetrics(registry)
	if err != nil {
		return nil, err
	}
	rules := rulestore.NewSource(cfg.Paths.Rules, logger)
	engine, err := workflow.New(workflow.Config{
		Store:   store,
		Rules:   rules,
		Clock:   clk,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		return nil, err
	}
	service, err := taskservice.New(taskservice.Config{
		Store:  store,
		Engine: engine,
		Clock:  clk,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return &app{
		config:   cfg,
		logger:   logger,
		store:    store,
		rules:    rules,
		registry: registry,
		metrics:  metrics,
		engine:   engine,
		service:  service,
		clock:    clk,
	}, nil
}

// Close releases the store.
func (a *app) Close() error {
	return a.store.Close()
}

// withApp opens the application, runs fn, and closes it, joining a
// close error with fn's.
func (g *globalParams) withApp(env environment, command string, fn func(ctx context.Context, a *app) error) (err error) {
	ctx := context.Background()
	application, err := g.open(ctx, env, command)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, application.Close())
	}()
	return fn(ctx, application)
}

// singleArg returns the one positional argument a command requires.
func singleArg(args []string, what string) (string, error) {
	switch len(args) {
	case 0:
		return "", fmt.Errorf("%s is required", what)
	case 1:
		return args[0], nil
	}
	return "", fmt.Errorf("expected one %s, got %d arguments", what, len(args))
}
