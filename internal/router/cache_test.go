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

import "testing"

func TestCategorizeCached_NilCacheFallsBackToPlainCategorize(t *testing.T) {
	const text = "what is a monad?"
	if got, want := CategorizeCached(nil, text), Categorize(text); got != want {
		t.Fatalf("CategorizeCached(nil, ...) = %q, want %q", got, want)
	}
}

func TestDecisionCache_PutThenGet(t *testing.T) {
	cache, err := OpenDecisionCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("OpenDecisionCache: %v", err)
	}
	defer cache.Close()

	const text = "how do I fix this panic"
	if _, ok := cache.Get(text); ok {
		t.Fatal("Get on an empty cache returned ok=true")
	}

	want := CategorizeCached(cache, text)
	got, ok := cache.Get(text)
	if !ok {
		t.Fatal("Get after CategorizeCached populated the cache returned ok=false")
	}
	if got != want {
		t.Fatalf("Get = %q, want %q", got, want)
	}
}

// TestRouter_DecideUsesConfiguredCache confirms Decide actually routes
// categorization through the Router's cache field rather than always
// calling Categorize directly — the dead-dependency concern this test
// guards against.
func TestRouter_DecideUsesConfiguredCache(t *testing.T) {
	cache, err := OpenDecisionCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("OpenDecisionCache: %v", err)
	}
	defer cache.Close()

	r := NewWithCache(NewState(), nil, nil, cache)
	const text = "what is a monad?"

	r.Decide(text)

	if _, ok := cache.Get(text); !ok {
		t.Fatal("Decide did not populate the router's DecisionCache")
	}
}

func TestRouter_CloseWithNoCacheIsNoop(t *testing.T) {
	r := New(NewState(), nil, nil)
	if err := r.Close(); err != nil {
		t.Fatalf("Close on a cache-less router returned %v, want nil", err)
	}
}
