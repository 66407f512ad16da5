// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package daemon

import (
	"sync"
	"time"

	"github.com/AleutianAI/shammah/internal/messages"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
)

// Session is one client's accumulated conversation, keyed by an opaque
// id the daemon hands back in the first response. spec.md §4.4 bounds
// the number of live sessions and evicts idle ones.
type Session struct {
	ID           string
	CreatedAt    time.Time
	Conversation []messages.Message
}

// SessionStore bounds live sessions to MaxSessions using a ristretto
// cache for storage and admission, and a parallel map of last-activity
// timestamps for idle sweeping. ristretto has no iteration API, so the
// sweep can't walk the cache itself; it walks the activity map and
// deletes from both.
type SessionStore struct {
	cache       *ristretto.Cache[string, *Session]
	maxSessions int
	idleTimeout time.Duration

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// NewSessionStore builds a store admitting up to maxSessions entries.
// The ristretto NumCounters/MaxCost/BufferItems values follow the
// library's own sizing guidance (10x NumCounters per expected item,
// MaxCost equal to the item budget since every session costs 1).
func NewSessionStore(maxSessions int, idleTimeout time.Duration) (*SessionStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *Session]{
		NumCounters: int64(maxSessions) * 10,
		MaxCost:     int64(maxSessions),
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &SessionStore{
		cache:       cache,
		maxSessions: maxSessions,
		idleTimeout: idleTimeout,
		lastSeen:    make(map[string]time.Time),
	}, nil
}

// Create starts a fresh, empty session and admits it into the cache.
func (s *SessionStore) Create() *Session {
	sess := &Session{ID: uuid.NewString(), CreatedAt: time.Now()}
	s.cache.SetWithTTL(sess.ID, sess, 1, 0)
	s.cache.Wait()
	s.touch(sess.ID)
	return sess
}

// Get returns the session for id, or nil if it isn't live (never
// created, evicted for cost, or swept for idleness).
func (s *SessionStore) Get(id string) *Session {
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil
	}
	s.touch(sess.ID)
	return sess
}

// Update replaces sess's stored conversation after a request appends
// to it, and refreshes its last-activity time.
func (s *SessionStore) Update(sess *Session) {
	s.cache.SetWithTTL(sess.ID, sess, 1, 0)
	s.cache.Wait()
	s.touch(sess.ID)
}

// Delete removes id from both the cache and the activity map.
func (s *SessionStore) Delete(id string) {
	s.cache.Del(id)
	s.mu.Lock()
	delete(s.lastSeen, id)
	s.mu.Unlock()
}

func (s *SessionStore) touch(id string) {
	s.mu.Lock()
	s.lastSeen[id] = time.Now()
	s.mu.Unlock()
}

// SweepIdle evicts every session whose last activity is older than the
// store's idle timeout, returning how many it removed. Callers run
// this on a ticker (see Server.runIdleSweep).
func (s *SessionStore) SweepIdle() int {
	cutoff := time.Now().Add(-s.idleTimeout)
	var stale []string
	s.mu.Lock()
	for id, last := range s.lastSeen {
		if last.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		s.Delete(id)
	}
	return len(stale)
}

// ApproxLen reports the number of sessions currently tracked for idle
// sweeping, which tracks the cache's live key set exactly except for
// the brief window between a cost-based eviction and the next sweep.
func (s *SessionStore) ApproxLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lastSeen)
}

// Close releases the underlying cache's background goroutines.
func (s *SessionStore) Close() {
	s.cache.Close()
}
