// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package router

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Router arbitrates between local inference and forwarding to a teacher,
// backed by a single State guarded by an interior lock per §5 of the
// design (all mutation through a single lock on the daemon side).
//
// Thread Safety: Router is safe for concurrent use. Concurrent calls for
// the same category text are coalesced through an internal
// singleflight.Group, mirroring the request-coalescing pattern used by
// AleutianLocal's LLMClassifier.
type Router struct {
	mu       sync.Mutex
	state    *State
	logger   *slog.Logger
	coalesce singleflight.Group

	// modelReady is polled by ShouldTryLocal; the inference engine's
	// BootstrapLoader flips this once GeneratorState reaches Ready. Until
	// then every decision is overridden to Forward{model-not-ready}.
	modelReady func() bool

	// cache memoizes Categorize for repeated exact-text queries. Nil
	// disables it, which is exactly CategorizeCached's nil-cache
	// fallback to plain Categorize — see NewWithCache.
	cache *DecisionCache
}

// New constructs a Router around state with no categorization cache.
// modelReady, if nil, is treated as "always ready" (useful for tests
// that don't exercise the bootstrap gate).
func New(state *State, logger *slog.Logger, modelReady func() bool) *Router {
	return NewWithCache(state, logger, modelReady, nil)
}

// NewWithCache is New plus a DecisionCache in front of categorization.
// cache may be nil, in which case it behaves exactly like New.
func NewWithCache(state *State, logger *slog.Logger, modelReady func() bool, cache *DecisionCache) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if modelReady == nil {
		modelReady = func() bool { return true }
	}
	return &Router{state: state, logger: logger, modelReady: modelReady, cache: cache}
}

// Close releases the router's DecisionCache, if one was configured. A
// router with no cache returns nil.
func (r *Router) Close() error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Close()
}

// Decide evaluates should-try-local and returns the full Decision,
// including the category it classified the query under.
//
// Description:
//
//	For the first 3 queries of a freshly created router, always returns
//	Forward{cold-start}. Thereafter looks up CategoryStats for the
//	query's category: if LocalAttempts >= MinSamples and the success
//	rate is at or above ConfidenceThreshold, returns Local; otherwise
//	Forward{category-low-success}. If the local model is not yet ready,
//	every decision downgrades to Forward{model-not-ready} regardless of
//	category stats.
//
// Decide reads state but never mutates it — should_try_local is a pure
// function of RouterState and query text; LearnLocalAttempt/
// LearnForwarded are the only places TotalQueries advances.
//
// Thread Safety: safe for concurrent use.
func (r *Router) Decide(text string) Decision {
	// Categorization is pure but callers sometimes fan out the same
	// query text to several goroutines (e.g. a retried request); collapse
	// those into a single categorization call.
	catAny, _, _ := r.coalesce.Do(text, func() (interface{}, error) {
		return CategorizeCached(r.cache, text), nil
	})
	category := catAny.(QueryCategory)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.modelReady() {
		return Forward(category, ReasonModelNotReady)
	}

	if r.state.TotalQueries < 3 {
		return Forward(category, ReasonColdStart)
	}

	cs := r.state.ensure(category)
	if cs.LocalAttempts >= r.state.MinSamples && cs.SuccessRate() >= r.state.ConfidenceThreshold {
		return Local(category, cs.SuccessRate())
	}
	return Forward(category, ReasonCategoryLowSucc)
}

// ShouldTryLocal is the boolean-only view of Decide, matching the
// contract's `should_try_local(query) -> bool`.
func (r *Router) ShouldTryLocal(text string) bool {
	return r.Decide(text).IsLocal()
}

// LearnLocalAttempt records the outcome of an attempted local
// generation. It must be called exactly when local inference was
// actually attempted — never when the decision was Forward. Conflating
// "didn't attempt locally" with "attempted and failed" would poison the
// success-rate statistic; that is why there is no combined `learn`
// method.
func (r *Router) LearnLocalAttempt(category QueryCategory, successful bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.TotalQueries++
	cs := r.state.ensure(category)
	cs.LocalAttempts++
	r.state.TotalLocalAttempts++
	if successful {
		cs.Successes++
		r.state.TotalSuccesses++
	} else {
		cs.Failures++
	}
	r.adaptiveTighten()
}

// LearnForwarded records that a query was forwarded, without touching
// any local-attempt counters.
func (r *Router) LearnForwarded(category QueryCategory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.TotalQueries++
	r.adaptiveTighten()
}

// adaptiveTighten implements the threshold/min-samples drift rule. Must
// be called with mu held.
func (r *Router) adaptiveTighten() {
	s := r.state
	if s.TotalQueries <= 50 {
		return
	}

	forwardRate := 1.0
	if s.TotalQueries > 0 {
		forwardRate = 1.0 - float64(s.TotalLocalAttempts)/float64(s.TotalQueries)
	}

	switch {
	case forwardRate > targetForwardRate+0.10:
		s.ConfidenceThreshold = clampThreshold(s.ConfidenceThreshold * 0.995)
	case s.TotalLocalAttempts > 0 && s.globalSuccessRate() < 0.70:
		s.ConfidenceThreshold = clampThreshold(s.ConfidenceThreshold * 1.005)
	}

	switch {
	case s.TotalQueries > 500:
		s.MinSamples = 1
	case s.TotalQueries > 100:
		s.MinSamples = 2
	}

	r.logger.Debug("router threshold adjusted",
		slog.Float64("confidence_threshold", s.ConfidenceThreshold),
		slog.Int("min_samples", s.MinSamples),
		slog.Float64("forward_rate", forwardRate),
	)
}

func (s *State) globalSuccessRate() float64 {
	if s.TotalLocalAttempts == 0 {
		return 0
	}
	return float64(s.TotalSuccesses) / float64(s.TotalLocalAttempts)
}

// Snapshot returns a deep-enough copy of the current state for reporting
// (e.g. the daemon-status CLI command). Callers must not mutate the
// returned CategoryStats values.
func (r *Router) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := State{
		Categories:          make(map[QueryCategory]*CategoryStats, len(r.state.Categories)),
		TotalQueries:        r.state.TotalQueries,
		TotalLocalAttempts:  r.state.TotalLocalAttempts,
		TotalSuccesses:      r.state.TotalSuccesses,
		ConfidenceThreshold: r.state.ConfidenceThreshold,
		MinSamples:          r.state.MinSamples,
		SessionID:           r.state.SessionID,
	}
	for k, v := range r.state.Categories {
		cp := *v
		out.Categories[k] = &cp
	}
	return out
}
