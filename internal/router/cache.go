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
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// DecisionCache memoizes Categorize results for repeated exact-text
// queries within a process lifetime. Categorization is cheap today, but
// the cache exists so a future LLM-backed classifier (see
// AleutianLocal's LLMClassifier, which this is patterned on) can be
// substituted without changing the Router's call sites.
//
// Thread Safety: DecisionCache is safe for concurrent use; Badger
// transactions provide the synchronization.
type DecisionCache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenDecisionCache opens (creating if absent) a Badger database at dir
// for caching categorization results. A zero ttl disables expiry.
func OpenDecisionCache(dir string, ttl time.Duration) (*DecisionCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &DecisionCache{db: db, ttl: ttl}, nil
}

// Close releases the underlying Badger database.
func (c *DecisionCache) Close() error { return c.db.Close() }

// Get returns the cached category for text, if present and unexpired.
func (c *DecisionCache) Get(text string) (QueryCategory, bool) {
	var category QueryCategory
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(text))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			category = QueryCategory(val)
			return nil
		})
	})
	if err != nil {
		return "", false
	}
	return category, true
}

// Put stores the category computed for text.
func (c *DecisionCache) Put(text string, category QueryCategory) error {
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(text), []byte(category))
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// CategorizeCached is Categorize with a DecisionCache in front of it. A
// nil cache falls back to plain Categorize.
func CategorizeCached(cache *DecisionCache, text string) QueryCategory {
	if cache == nil {
		return Categorize(text)
	}
	if cat, ok := cache.Get(text); ok {
		return cat
	}
	cat := Categorize(text)
	_ = cache.Put(text, cat)
	return cat
}
