// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package router implements the adaptive, per-category decision of
// whether a query is attempted against the resident local model or
// forwarded to a teacher provider.
package router

import "github.com/google/uuid"

// QueryCategory is the coarse class a query is bucketed into for the
// purpose of accumulating local-inference success statistics.
type QueryCategory string

const (
	CategoryGreeting    QueryCategory = "greeting"
	CategoryDefinition  QueryCategory = "definition"
	CategoryHowTo       QueryCategory = "how_to"
	CategoryExplanation QueryCategory = "explanation"
	CategoryCode        QueryCategory = "code"
	CategoryDebugging   QueryCategory = "debugging"
	CategoryComparison  QueryCategory = "comparison"
	CategoryOpinion     QueryCategory = "opinion"
	CategoryOther       QueryCategory = "other"
)

// allCategories lists every bucket so State.ensure can pre-populate the
// map and so tests can assert exhaustiveness.
var allCategories = []QueryCategory{
	CategoryGreeting, CategoryDefinition, CategoryHowTo, CategoryExplanation,
	CategoryCode, CategoryDebugging, CategoryComparison, CategoryOpinion, CategoryOther,
}

// ForwardReason explains why a Decision chose Forward.
type ForwardReason string

const (
	ReasonCrisis            ForwardReason = "crisis"
	ReasonUnknown           ForwardReason = "unknown"
	ReasonCategoryLowSucc   ForwardReason = "category-low-success"
	ReasonColdStart         ForwardReason = "cold-start"
	ReasonModelNotReady     ForwardReason = "model-not-ready"
)

// DecisionKind discriminates the two Decision variants.
type DecisionKind string

const (
	DecisionLocal   DecisionKind = "local"
	DecisionForward DecisionKind = "forward"
)

// Decision is the sum type RouteDecision from the design: either an
// instruction to attempt local inference with a confidence score, or an
// instruction to forward with a reason.
type Decision struct {
	Kind       DecisionKind
	Category   QueryCategory
	PatternID  string
	Confidence float64
	Reason     ForwardReason
}

// Local builds a Decision{Kind: DecisionLocal}.
func Local(category QueryCategory, confidence float64) Decision {
	return Decision{Kind: DecisionLocal, Category: category, PatternID: string(category), Confidence: confidence}
}

// Forward builds a Decision{Kind: DecisionForward}.
func Forward(category QueryCategory, reason ForwardReason) Decision {
	return Decision{Kind: DecisionForward, Category: category, Reason: reason}
}

// IsLocal reports whether the decision chose the local path.
func (d Decision) IsLocal() bool { return d.Kind == DecisionLocal }

// CategoryStats accumulates local-inference outcomes for one category.
// Invariant: Successes + Failures == LocalAttempts.
type CategoryStats struct {
	LocalAttempts  int     `json:"local_attempts"`
	Successes      int     `json:"successes"`
	Failures       int     `json:"failures"`
	AvgConfidence  float64 `json:"avg_confidence"`
}

// SuccessRate returns Successes/LocalAttempts, or 0 when there have been
// no attempts yet.
func (c CategoryStats) SuccessRate() float64 {
	if c.LocalAttempts == 0 {
		return 0
	}
	return float64(c.Successes) / float64(c.LocalAttempts)
}

const (
	minConfidenceThreshold = 0.60
	maxConfidenceThreshold = 0.95
	targetForwardRate      = 0.05
)

// State is the full persisted+runtime state of the router: §3 RouterState.
type State struct {
	Categories map[QueryCategory]*CategoryStats `json:"categories"`

	TotalQueries      int `json:"total_queries"`
	TotalLocalAttempts int `json:"total_local_attempts"`
	TotalSuccesses    int `json:"total_successes"`

	ConfidenceThreshold float64 `json:"confidence_threshold"`
	MinSamples          int     `json:"min_samples"`

	// SessionID, HasSavedThisSession, and LoadedFromDisk are runtime-only
	// and are never marshaled: they encode "am I the owner of the file
	// this run?" per the save protocol in persistence.go.
	SessionID            uuid.UUID `json:"-"`
	HasSavedThisSession  bool      `json:"-"`
	LoadedFromDisk       bool      `json:"-"`
}

// NewState returns a freshly initialized State: zeroed stats, the
// starting threshold and sample requirement, and a new session id.
func NewState() *State {
	s := &State{
		Categories:          make(map[QueryCategory]*CategoryStats, len(allCategories)),
		ConfidenceThreshold: 0.80,
		MinSamples:          2,
		SessionID:           uuid.New(),
	}
	for _, c := range allCategories {
		s.Categories[c] = &CategoryStats{}
	}
	return s
}

// ensure returns the CategoryStats for c, creating it on first use. This
// guards against categories appearing in JSON that predates a later
// addition to allCategories.
func (s *State) ensure(c QueryCategory) *CategoryStats {
	if s.Categories == nil {
		s.Categories = make(map[QueryCategory]*CategoryStats)
	}
	cs, ok := s.Categories[c]
	if !ok {
		cs = &CategoryStats{}
		s.Categories[c] = cs
	}
	return cs
}

// clampThreshold keeps ConfidenceThreshold within [0.60, 0.95].
func clampThreshold(v float64) float64 {
	if v < minConfidenceThreshold {
		return minConfidenceThreshold
	}
	if v > maxConfidenceThreshold {
		return maxConfidenceThreshold
	}
	return v
}
