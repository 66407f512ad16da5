// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package main is the shammah CLI and daemon entrypoint: a thin cobra
// wrapper over internal/daemon, internal/client, and the subsystems
// that feed them, assembled here rather than in any internal package so
// no internal package needs to know about all the others.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/shammah/internal/config"
	"github.com/AleutianAI/shammah/internal/daemon"
	"github.com/AleutianAI/shammah/internal/download"
	"github.com/AleutianAI/shammah/internal/inference"
	"github.com/AleutianAI/shammah/internal/metrics"
	"github.com/AleutianAI/shammah/internal/modeladapter"
	"github.com/AleutianAI/shammah/internal/providers"
	"github.com/AleutianAI/shammah/internal/router"
	"github.com/AleutianAI/shammah/internal/training"
)

const (
	llamaServerPort     = 8134
	llamaServerReadyWait = 90 * time.Second
)

// app bundles every long-lived component the daemon command serves and
// the background goroutines (bootstrap, idle sweep, training drain,
// threshold validation) that run alongside it.
type app struct {
	cfg    *config.Config
	home   string
	logger *slog.Logger

	state       *inference.GeneratorState
	router      *router.Router
	store       *router.Store
	teachers    *providers.FallbackChain
	training    *training.Chan
	coord       *training.Coordinator
	server      *daemon.Server
	adapterPath string
}

// newApp loads config and wires every component. It does not block on
// model download/load: the resident engine comes up asynchronously via
// a BootstrapLoader goroutine the caller starts with run().
func newApp(cfgPath string, logger *slog.Logger) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	home, err := homeDir()
	if err != nil {
		return nil, err
	}

	providerList, err := buildProviders(cfg.Teachers)
	if err != nil {
		return nil, fmt.Errorf("building teacher providers: %w", err)
	}
	chain, err := providers.NewFallbackChain(providerList, logger)
	if err != nil {
		return nil, fmt.Errorf("building fallback chain: %w", err)
	}

	store := router.NewStore(routerStatePath(home), logger)
	routerState, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading router state: %w", err)
	}

	cache, err := router.OpenDecisionCache(routerCacheDir(home), 0)
	if err != nil {
		logger.Warn("router categorization cache unavailable, continuing without it", "error", err)
		cache = nil
	}

	genState := inference.NewGeneratorState()
	r := router.NewWithCache(routerState, logger, genState.Ready, cache)

	sessions, err := daemon.NewSessionStore(cfg.Daemon.MaxSessions, cfg.Daemon.SessionIdleTimeout())
	if err != nil {
		return nil, fmt.Errorf("building session store: %w", err)
	}

	buffer := training.NewBuffer(cfg.Backend.BufferSize, cfg.Backend.TrainThreshold)
	var spawner *training.SubprocessSpawner
	if cfg.Backend.AutoTrain {
		spawner = &training.SubprocessSpawner{
			PythonPath:  cfg.Backend.PythonPath,
			ScriptPath:  cfg.Backend.TrainScriptPath,
			BaseModelID: cfg.Backend.ModelFamily,
			Config:      training.DefaultLoRAConfig(),
			Logger:      logger,
		}
	}
	adapterOutPath := filepath.Join(adaptersDir(home), cfg.Backend.ModelFamily+".safetensors")
	coord := training.NewCoordinator(buffer, trainingQueuePath(home), adapterOutPath, spawner, cfg.Backend.AutoTrain, logger)
	trainingChan := training.NewChan(0, logger.Warn)

	srv := daemon.NewServer(&daemon.Server{
		Config:         cfg,
		Router:         r,
		Teachers:       chain,
		GeneratorState: genState,
		ToolExecutor:   unavailableExecutor{},
		Training:       trainingChan,
		Sessions:       sessions,
		Events:         metrics.NewEventLogger(logger),
		LocalModelID:   cfg.Backend.ModelFamily + "-local",
		Logger:         logger,
	})

	return &app{
		cfg:         cfg,
		home:        home,
		logger:      logger,
		state:       genState,
		router:      r,
		store:       store,
		teachers:    chain,
		training:    trainingChan,
		coord:       coord,
		server:      srv,
		adapterPath: adapterOutPath,
	}, nil
}

// bootstrapLoader builds the Loader/Adapter pair for the configured
// backend and wraps it in a BootstrapLoader that, once it succeeds,
// hands the daemon's server a live engine. The LoRA hot-reload watcher
// it starts on success runs until ctx is cancelled.
func (a *app) bootstrapLoader(ctx context.Context) (*inference.BootstrapLoader, error) {
	family := modeladapter.Family(a.cfg.Backend.ModelFamily)
	adapter, err := modeladapter.New(family)
	if err != nil {
		return nil, fmt.Errorf("backend.model_family: %w", err)
	}

	var override *download.RepoRef
	if a.cfg.Backend.ModelSize != "" {
		ref, lookupErr := download.Lookup(family, download.Size(a.cfg.Backend.ModelSize))
		if lookupErr != nil {
			return nil, fmt.Errorf("backend.model_size: %w", lookupErr)
		}
		override = &ref
	}

	ramBytes := download.DetectRAMGB(a.logger) * (1 << 30)

	loader := &inference.LlamaServerLoader{
		Fetcher:      download.NewFetcher(),
		Family:       family,
		RAMBytes:     ramBytes,
		Override:     override,
		ModelsDir:    modelsDir(a.home),
		BinaryPath:   a.cfg.Backend.LlamaServerBinaryPath,
		Port:         llamaServerPort,
		ReadyTimeout: llamaServerReadyWait,
	}

	onReady := func(engine *inference.Engine) {
		a.server.Engine = engine
		watcher, err := inference.NewLoRAWatcher(engine, a.adapterPath, a.logger)
		if err != nil {
			a.logger.Warn("LoRA hot-reload watcher unavailable", "error", err)
			return
		}
		go watcher.Run(ctx)
	}

	return inference.NewBootstrapLoader(loader, adapter, a.state, a.logger, onReady), nil
}

// exitCode mirrors spec.md §6's CLI exit-code table.
const (
	exitOK               = 0
	exitGenericFailure   = 1
	exitConfigError      = 2
	exitDaemonRunning    = 3
	exitDaemonUnreachable = 4
)

func fatalf(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(code)
}
