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

import "context"

const defaultChannelCapacity = 64

// Chan is the unbounded-feeling (but finitely buffered) channel the
// daemon's auto-collection path feeds, per spec.md §5: "channel sends
// to the training coordinator" is a suspension point for the caller,
// but spec.md §4.4 step 6 requires the send itself to be non-blocking
// with a dropped-and-warned example on a full channel — the two are
// reconciled by giving the channel enough headroom that Run drains it
// well before it fills under normal load, and by Collect never
// blocking the caller regardless.
type Chan struct {
	ch     chan Example
	logger loggerFunc
}

// loggerFunc lets tests observe drops without pulling in log/slog
// assertions; the real constructor wires this to slog.Logger.Warn.
type loggerFunc func(msg string, args ...any)

// NewChan returns a Chan with the given buffer capacity (0 uses the
// default).
func NewChan(capacity int, warn func(msg string, args ...any)) *Chan {
	if capacity <= 0 {
		capacity = defaultChannelCapacity
	}
	if warn == nil {
		warn = func(string, ...any) {}
	}
	return &Chan{ch: make(chan Example, capacity), logger: warn}
}

// Collect offers ex to the channel without blocking. On a full
// channel it drops the example and logs a warning, per spec.md §4.4
// step 6.
func (c *Chan) Collect(ex Example) {
	select {
	case c.ch <- ex:
	default:
		c.logger("training channel full; dropping example", "query", ex.Query)
	}
}

// Run drains the channel into coord.Submit until ctx is cancelled,
// intended to be launched once at daemon start with `go chan.Run(ctx, coord)`.
func (c *Chan) Run(ctx context.Context, coord *Coordinator) {
	for {
		select {
		case <-ctx.Done():
			return
		case ex := <-c.ch:
			if err := coord.Submit(ex); err != nil {
				c.logger("training submit failed", "error", err)
			}
		}
	}
}
