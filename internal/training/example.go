// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package training buffers WeightedExamples collected from served
// queries, flushes them to a JSONL queue file, and spawns the LoRA
// fine-tuning subprocess described in spec.md §4.6. The inference
// engine's own hot-reload of the resulting adapter lives in
// internal/inference; this package only produces the file it reloads.
package training

import "time"

// Weight constants from spec.md's WeightedExample glossary entry.
const (
	WeightAutoForward   = 1.0
	WeightUserFlagged   = 3.0
	WeightCriticalError = 10.0
)

// Example is one training signal: a query/response pair plus a weight
// and optional human note. Immutable once created — nothing in this
// package ever mutates a stored Example in place.
type Example struct {
	Query        string    `json:"query"`
	Response     string    `json:"response"`
	Weight       float64   `json:"weight"`
	FeedbackNote string    `json:"feedback_note,omitempty"`
	CollectedAt  time.Time `json:"collected_at"`
}

// NewExample constructs an Example, stamping the collection time.
func NewExample(query, response string, weight float64, feedbackNote string) Example {
	return Example{
		Query:        query,
		Response:     response,
		Weight:       weight,
		FeedbackNote: feedbackNote,
		CollectedAt:  time.Now(),
	}
}
