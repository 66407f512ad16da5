// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package inference drives the local generation path: the cold-start
// bootstrap sequence that downloads and loads a model in the background,
// the single-worker engine that serializes generation calls against it,
// and the LoRA hot-reload watcher that swaps adapter weights in place.
package inference

import "sync"

// Phase is one state in the GeneratorState lifecycle. The only legal
// forward transitions are Initializing -> Downloading -> Loading ->
// Ready, with a transition to Failed possible from any of the first
// three; Failed and Ready are both terminal.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseDownloading  Phase = "downloading"
	PhaseLoading      Phase = "loading"
	PhaseReady        Phase = "ready"
	PhaseFailed       Phase = "failed"
)

// GeneratorState is the shared, concurrency-safe lifecycle flag the
// router and the daemon consult before attempting a local generation.
// Until it reaches Ready, every query is forced onto the Forward path
// (spec.md §4.3); once it reaches Failed, local inference is disabled
// for the remaining life of the process.
type GeneratorState struct {
	mu    sync.RWMutex
	phase Phase
	err   error
}

// NewGeneratorState returns a state starting at Initializing.
func NewGeneratorState() *GeneratorState {
	return &GeneratorState{phase: PhaseInitializing}
}

// Phase returns the current lifecycle phase.
func (g *GeneratorState) Phase() Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

// Err returns the failure reason once Phase() == PhaseFailed, nil
// otherwise.
func (g *GeneratorState) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.err
}

// Ready reports whether local generation may be attempted.
func (g *GeneratorState) Ready() bool { return g.Phase() == PhaseReady }

// Failed reports whether local inference has been permanently disabled.
func (g *GeneratorState) Failed() bool { return g.Phase() == PhaseFailed }

// advance moves to the next phase. It panics on an illegal transition
// since that can only indicate a bug in the bootstrap sequence, not a
// runtime condition callers need to recover from.
func (g *GeneratorState) advance(next Phase) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseFailed || g.phase == PhaseReady {
		return // terminal; ignore stray late transitions
	}
	g.phase = next
}

// fail transitions to Failed and records why. Always legal, including
// from Initializing (e.g. RAM auto-selection rejecting the machine
// outright before any download starts).
func (g *GeneratorState) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase == PhaseFailed || g.phase == PhaseReady {
		return
	}
	g.phase = PhaseFailed
	g.err = err
}
