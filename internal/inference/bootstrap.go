// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package inference

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/shammah/internal/modeladapter"
)

// BootstrapLoader drives the cold-start sequence spec.md §4.3 describes:
// resolve (which may mean download) a model, load it, and publish the
// result to a GeneratorState the rest of the daemon already has a
// reference to. It runs once, in the background, starting at daemon
// boot; Run never retries on its own — a failed bootstrap leaves local
// inference disabled for the process lifetime, by design.
type BootstrapLoader struct {
	loader  Loader
	adapter modeladapter.Adapter
	state   *GeneratorState
	logger  *slog.Logger

	onReady func(*Engine)
}

// NewBootstrapLoader wires a Loader (resolution + load) and a family
// adapter to a GeneratorState. onReady fires exactly once, from the
// goroutine Run was started on, with the Engine callers should start
// routing Local decisions to.
func NewBootstrapLoader(loader Loader, adapter modeladapter.Adapter, state *GeneratorState, logger *slog.Logger, onReady func(*Engine)) *BootstrapLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &BootstrapLoader{loader: loader, adapter: adapter, state: state, logger: logger, onReady: onReady}
}

// Run executes the bootstrap sequence. Intended to be launched with
// `go loader.Run(ctx)` immediately at daemon start; the router consults
// state.Ready() independently and needs no signal from this call
// returning.
func (b *BootstrapLoader) Run(ctx context.Context) {
	b.state.advance(PhaseDownloading)
	path, err := b.loader.Resolve(ctx, func(status string) {
		b.logger.Info("model resolution progress", "status", status)
	})
	if err != nil {
		b.fail(fmt.Errorf("resolve model: %w", err))
		return
	}

	b.state.advance(PhaseLoading)
	handle, err := b.loader.Load(ctx, path)
	if err != nil {
		b.fail(fmt.Errorf("load model: %w", err))
		return
	}

	engine := NewEngine(handle, b.adapter, b.state)
	b.state.advance(PhaseReady)
	b.logger.Info("local inference ready", "family", b.adapter.Family())
	if b.onReady != nil {
		b.onReady(engine)
	}
}

func (b *BootstrapLoader) fail(err error) {
	b.state.fail(err)
	b.logger.Error("local inference bootstrap failed; disabled for process lifetime", "error", err)
}
