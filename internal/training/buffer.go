// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package training

import "sync"

const (
	defaultBufferSize = 100
	defaultThreshold  = 10
)

// Buffer is the bounded ring buffer of Examples spec.md §4.6
// describes: once full, the oldest example is dropped to make room
// for the newest, and add_example reports whether the threshold for
// triggering a training run has been reached.
type Buffer struct {
	mu        sync.Mutex
	examples  []Example
	size      int
	threshold int
}

// NewBuffer returns a Buffer with the given capacity and training
// threshold. A size or threshold of 0 uses the spec's defaults (100
// and 10 respectively).
func NewBuffer(size, threshold int) *Buffer {
	if size <= 0 {
		size = defaultBufferSize
	}
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &Buffer{size: size, threshold: threshold}
}

// Add appends ex to the buffer, evicting the oldest entry if already
// at capacity, and reports should_train = (len >= threshold).
func (b *Buffer) Add(ex Example) (shouldTrain bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.examples = append(b.examples, ex)
	if len(b.examples) > b.size {
		b.examples = b.examples[len(b.examples)-b.size:]
	}
	return len(b.examples) >= b.threshold
}

// Len returns the current number of buffered examples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.examples)
}

// drain returns a copy of every buffered example and empties the
// buffer. Used by Flush so the JSONL write happens outside the lock.
func (b *Buffer) drain() []Example {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Example, len(b.examples))
	copy(out, b.examples)
	b.examples = b.examples[:0]
	return out
}
