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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Store persists and loads router State to/from a well-known JSON file,
// guarded by an advisory cross-process lock on a sibling ".lock" file.
//
// The save algorithm is the critical piece of this subsystem: it must
// never let two concurrently-saving daemons double-count each other's
// statistics. See Save for the five-step protocol.
type Store struct {
	Path   string
	logger *slog.Logger
}

// NewStore returns a Store rooted at path (typically
// "~/.shammah/models/threshold_router.json").
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{Path: path, logger: logger}
}

func (st *Store) lockPath() string { return st.Path + ".lock" }

// Load reads State from disk. A fresh session id is always generated,
// HasSavedThisSession is reset to false, and LoadedFromDisk is set to
// true — this is what lets Save later tell "loaded, never yet saved
// under this session" apart from "this session already owns the file".
//
// Load returns a fresh State with no error when the file does not exist.
func (st *Store) Load() (*State, error) {
	data, err := os.ReadFile(st.Path)
	if os.IsNotExist(err) {
		return NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("router: reading state file: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("router: parsing state file: %w", err)
	}
	if s.Categories == nil {
		s.Categories = make(map[QueryCategory]*CategoryStats)
	}
	s.SessionID = uuid.New()
	s.HasSavedThisSession = false
	s.LoadedFromDisk = true
	return &s, nil
}

// Save writes r's current state to disk, following the five-step
// protocol:
//
//  1. Acquire an exclusive advisory lock on Path+".lock" (blocking).
//  2. Decide what to write: if this session already saved once, or it
//     loaded its state from this exact file, just serialize self — the
//     data on disk is already "ours" (or becomes ours). Otherwise, if a
//     file already exists, merge this session's deltas into it (this is
//     the concurrent-daemons case: two fresh sessions, neither of which
//     has loaded or saved yet, both pointed at the same file).
//  3. Write to Path+".tmp", then atomically rename over Path.
//  4. Mark HasSavedThisSession = true.
//  5. Release the lock.
//
// On any failure to read/parse an existing file during the merge step,
// Save degrades to writing self rather than losing the update.
func (r *Router) Save(ctx context.Context, st *Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fl := flock.New(st.lockPath())
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("router: acquiring lock: %w", err)
	}
	defer fl.Unlock()

	toWrite := r.state
	if !r.state.HasSavedThisSession && !r.state.LoadedFromDisk {
		if existing, err := readStateFile(st.Path); err == nil {
			merged := mergeStates(existing, r.state)
			toWrite = merged
		} else if !os.IsNotExist(err) {
			st.logger.Warn("router: falling back to self-only save after merge-load failure", slog.String("error", err.Error()))
		}
	}

	if err := atomicWriteJSON(st.Path, toWrite); err != nil {
		return fmt.Errorf("router: writing state file: %w", err)
	}

	r.state.HasSavedThisSession = true
	if toWrite != r.state {
		// Adopt the merged totals so this process's in-memory view stays
		// consistent with what is now on disk, while keeping our own
		// session id per the protocol ("keep THIS session's session_id").
		r.state.Categories = toWrite.Categories
		r.state.TotalQueries = toWrite.TotalQueries
		r.state.TotalLocalAttempts = toWrite.TotalLocalAttempts
		r.state.TotalSuccesses = toWrite.TotalSuccesses
		r.state.ConfidenceThreshold = toWrite.ConfidenceThreshold
		r.state.MinSamples = toWrite.MinSamples
	}
	return nil
}

func readStateFile(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("router: parsing existing state file: %w", err)
	}
	if s.Categories == nil {
		s.Categories = make(map[QueryCategory]*CategoryStats)
	}
	return &s, nil
}

// mergeStates combines on-disk state with this session's in-memory
// state: per-category sums of attempts/successes/failures, the average
// of avg_confidence and of confidence_threshold, THIS session's
// session_id, and the union of categories.
func mergeStates(disk, mine *State) *State {
	out := &State{
		Categories:          make(map[QueryCategory]*CategoryStats),
		TotalQueries:        disk.TotalQueries + mine.TotalQueries,
		TotalLocalAttempts:  disk.TotalLocalAttempts + mine.TotalLocalAttempts,
		TotalSuccesses:      disk.TotalSuccesses + mine.TotalSuccesses,
		ConfidenceThreshold: average(disk.ConfidenceThreshold, mine.ConfidenceThreshold),
		MinSamples:          mine.MinSamples,
		SessionID:           mine.SessionID,
		HasSavedThisSession: true,
		LoadedFromDisk:      mine.LoadedFromDisk,
	}

	seen := make(map[QueryCategory]bool)
	for cat := range disk.Categories {
		seen[cat] = true
	}
	for cat := range mine.Categories {
		seen[cat] = true
	}
	for cat := range seen {
		d := disk.Categories[cat]
		m := mine.Categories[cat]
		merged := &CategoryStats{}
		if d != nil {
			merged.LocalAttempts += d.LocalAttempts
			merged.Successes += d.Successes
			merged.Failures += d.Failures
		}
		if m != nil {
			merged.LocalAttempts += m.LocalAttempts
			merged.Successes += m.Successes
			merged.Failures += m.Failures
		}
		switch {
		case d != nil && m != nil:
			merged.AvgConfidence = average(d.AvgConfidence, m.AvgConfidence)
		case d != nil:
			merged.AvgConfidence = d.AvgConfidence
		case m != nil:
			merged.AvgConfidence = m.AvgConfidence
		}
		out.Categories[cat] = merged
	}
	return out
}

func average(a, b float64) float64 { return (a + b) / 2 }

// atomicWriteJSON writes v as JSON to a ".tmp" sibling of path, then
// renames it over path. Rename is atomic on POSIX filesystems as long as
// both paths share a directory, which they do by construction here.
func atomicWriteJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating parent dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
