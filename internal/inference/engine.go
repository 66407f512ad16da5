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
	"errors"
	"fmt"
	"sync"

	"github.com/AleutianAI/shammah/internal/modeladapter"
)

// ErrNotReady is returned by Generate/GenerateStream when the generator
// state is not Ready; callers (the daemon's request handler) downgrade
// to the Forward path on this error rather than treating it as fatal.
var ErrNotReady = errors.New("inference: generator not ready")

// Engine serializes every generation call against one resident model
// through a single write lock, per spec.md §4.3 ("a single engine
// worker is single-threaded; multiple queries serialize through a
// write lock on the generator"). There is deliberately no worker pool
// here — concurrency within one generation call (GPU kernels, the
// backing server's own threading) is opaque to this type.
type Engine struct {
	mu      sync.Mutex
	handle  Handle
	adapter modeladapter.Adapter
	state   *GeneratorState
}

// NewEngine wires a ready handle and its family adapter to a shared
// GeneratorState. Callers normally obtain handle/adapter from a
// BootstrapLoader's completion callback rather than constructing an
// Engine directly.
func NewEngine(handle Handle, adapter modeladapter.Adapter, state *GeneratorState) *Engine {
	return &Engine{handle: handle, adapter: adapter, state: state}
}

// Generate formats system/user into the adapter's chat template, runs
// one full (non-streaming) generation, and cleans the result. Returns
// ErrNotReady without touching the lock if the generator isn't Ready —
// the daemon is expected to have already checked this, but Engine
// enforces it itself so no caller can race past the check.
func (e *Engine) Generate(ctx context.Context, system, user string, cfg modeladapter.GenerationConfig) (string, error) {
	if !e.state.Ready() {
		return "", ErrNotReady
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	prompt := e.adapter.FormatChatPrompt(system, user)
	raw, err := e.handle.Generate(ctx, prompt, toParams(cfg))
	if err != nil {
		return "", fmt.Errorf("inference: generate: %w", err)
	}
	return e.adapter.CleanOutput(raw), nil
}

// GenerateStream is the token-by-token counterpart. The same special
// tokens CleanOutput strips in bulk must be filtered per spec.md §4.3;
// streamClean below does that incrementally as deltas arrive.
func (e *Engine) GenerateStream(ctx context.Context, system, user string, cfg modeladapter.GenerationConfig, emit func(text string) error) error {
	if !e.state.Ready() {
		return ErrNotReady
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	prompt := e.adapter.FormatChatPrompt(system, user)
	deltas, err := e.handle.GenerateStream(ctx, prompt, toParams(cfg))
	if err != nil {
		return fmt.Errorf("inference: generate stream: %w", err)
	}

	sc := newStreamCleaner(e.adapter)
	for d := range deltas {
		if text := sc.filter(d.Text); text != "" {
			if err := emit(text); err != nil {
				return err
			}
		}
		if d.Done {
			break
		}
	}
	return nil
}

// ReloadLoRA hands a new adapter file to the backing handle without
// tearing down the resident base model. Serialized behind the same
// lock as generation so a reload can never race a mid-flight call.
func (e *Engine) ReloadLoRA(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handle.ReloadLoRA(path)
}

// Adapter exposes the family adapter in use, e.g. so the tool loop can
// reuse FormatChatPrompt's conventions when building its own prompts.
func (e *Engine) Adapter() modeladapter.Adapter { return e.adapter }

func toParams(cfg modeladapter.GenerationConfig) GenerateParams {
	return GenerateParams{
		Temperature:       cfg.Temperature,
		TopP:              cfg.TopP,
		TopK:              cfg.TopK,
		RepetitionPenalty: cfg.RepetitionPenalty,
		MaxTokens:         cfg.MaxTokens,
	}
}
