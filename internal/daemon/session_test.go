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
	"testing"
	"time"
)

func TestSessionStore_CreateGetUpdate(t *testing.T) {
	store, err := NewSessionStore(8, time.Minute)
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	defer store.Close()

	sess := store.Create()
	if got := store.Get(sess.ID); got == nil || got.ID != sess.ID {
		t.Fatalf("Get(%q) = %+v, want the created session", sess.ID, got)
	}

	sess.Conversation = append(sess.Conversation, toInternalMessages([]ChatMessage{{Role: "user", Content: "hi"}})...)
	store.Update(sess)

	got := store.Get(sess.ID)
	if got == nil || len(got.Conversation) != 1 {
		t.Fatalf("Get after Update = %+v, want 1 conversation entry", got)
	}
}

func TestSessionStore_DeleteRemovesSession(t *testing.T) {
	store, err := NewSessionStore(8, time.Minute)
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	defer store.Close()

	sess := store.Create()
	store.Delete(sess.ID)
	if got := store.Get(sess.ID); got != nil {
		t.Fatalf("Get after Delete = %+v, want nil", got)
	}
	if n := store.ApproxLen(); n != 0 {
		t.Errorf("ApproxLen() = %d, want 0", n)
	}
}

func TestSessionStore_GetUnknownIDReturnsNil(t *testing.T) {
	store, err := NewSessionStore(8, time.Minute)
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	defer store.Close()

	if got := store.Get("does-not-exist"); got != nil {
		t.Fatalf("Get(unknown) = %+v, want nil", got)
	}
}

func TestSessionStore_SweepIdleEvictsStaleSessions(t *testing.T) {
	store, err := NewSessionStore(8, time.Millisecond)
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	defer store.Close()

	sess := store.Create()
	time.Sleep(5 * time.Millisecond)

	if n := store.SweepIdle(); n != 1 {
		t.Fatalf("SweepIdle() = %d, want 1", n)
	}
	if got := store.Get(sess.ID); got != nil {
		t.Fatalf("Get after sweep = %+v, want nil", got)
	}
}
