// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package inference

import (
	"strings"

	"github.com/AleutianAI/shammah/internal/modeladapter"
)

// streamCleaner filters the same special tokens CleanOutput strips in
// bulk, but incrementally over a sequence of token deltas that may
// split a marker across two or more chunks. It withholds the tail of
// its buffer whenever that tail could be the start of a known marker,
// and only releases it once enough text has arrived to rule that out.
type streamCleaner struct {
	markers []string
	maxLen  int
	buf     strings.Builder
}

func newStreamCleaner(a modeladapter.Adapter) *streamCleaner {
	markers := a.Markers()
	max := 0
	for _, m := range markers {
		if l := len([]rune(m)); l > max {
			max = l
		}
	}
	return &streamCleaner{markers: markers, maxLen: max}
}

// filter appends delta to the internal buffer, strips any complete
// markers that have fully arrived, and returns the portion now safe to
// emit (i.e. that can no longer be the prefix of a marker).
func (c *streamCleaner) filter(delta string) string {
	if delta == "" {
		return ""
	}
	c.buf.WriteString(delta)
	pending := c.buf.String()

	for _, m := range c.markers {
		pending = strings.ReplaceAll(pending, m, "")
	}

	safeLen := len(pending)
	if c.maxLen > 1 {
		holdBack := c.maxLen - 1
		if holdBack > safeLen {
			holdBack = safeLen
		}
		// Only hold back runes that could extend into a marker prefix.
		for holdBack > 0 {
			tail := pending[safeLen-holdBack:]
			if couldBeMarkerPrefix(tail, c.markers) {
				break
			}
			holdBack--
		}
		safeLen -= holdBack
	}

	out := pending[:safeLen]
	c.buf.Reset()
	c.buf.WriteString(pending[safeLen:])
	return out
}

func couldBeMarkerPrefix(tail string, markers []string) bool {
	for _, m := range markers {
		if m == "" {
			continue
		}
		if strings.HasPrefix(m, tail) {
			return true
		}
	}
	return false
}
