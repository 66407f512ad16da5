// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package feedback records user ratings of past responses to
// feedback.jsonl (spec.md's append-only log of user ratings) and turns
// each rating into a weighted training.Example the coordinator can
// ingest directly, bypassing the daemon's own auto-collection channel.
package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/AleutianAI/shammah/internal/training"
)

// Severity is the user-facing rating a client attaches to a past
// response; it maps onto the weight scale spec.md's WeightedExample
// glossary entry defines.
type Severity string

const (
	SeverityImprovement   Severity = "improvement"
	SeverityCriticalError Severity = "critical_error"
)

func (s Severity) weight() float64 {
	if s == SeverityCriticalError {
		return training.WeightCriticalError
	}
	return training.WeightUserFlagged
}

// Rating is one user-submitted judgment of a query/response pair.
type Rating struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Severity  Severity  `json:"severity"`
	Note      string    `json:"note,omitempty"`
	RatedAt   time.Time `json:"rated_at"`
}

// Sink appends every Rating to a JSONL file and, optionally, forwards
// it to a training coordinator as a weighted Example.
type Sink struct {
	mu   sync.Mutex
	path string
}

// NewSink opens (creating if necessary) path for append-only writes.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Record appends rating to feedback.jsonl and returns the
// training.Example it corresponds to, so callers can hand it straight
// to Coordinator.Submit without re-deriving the weight.
func (s *Sink) Record(query, response string, severity Severity, note string) (training.Example, error) {
	rating := Rating{Query: query, Response: response, Severity: severity, Note: note, RatedAt: time.Now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return training.Example{}, fmt.Errorf("feedback: open %s: %w", s.path, err)
	}
	defer f.Close()

	line, err := json.Marshal(rating)
	if err != nil {
		return training.Example{}, fmt.Errorf("feedback: marshal rating: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return training.Example{}, fmt.Errorf("feedback: write rating: %w", err)
	}

	return training.NewExample(query, response, severity.weight(), note), nil
}
