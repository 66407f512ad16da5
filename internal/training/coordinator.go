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

import (
	"fmt"
	"log/slog"
)

// Coordinator wires the ring buffer, the JSONL flush, and the
// subprocess spawner together behind the single entry point the
// daemon's collection path and feedback ratings both call into.
type Coordinator struct {
	buffer     *Buffer
	queuePath  string
	adapterOut string
	spawner    *SubprocessSpawner
	autoTrain  bool
	logger     *slog.Logger
}

// NewCoordinator wires a Buffer to a queue file and subprocess
// spawner. autoTrain mirrors spec.md §4.6's auto_train flag: when
// false, Submit still buffers and flushes but never spawns training.
func NewCoordinator(buffer *Buffer, queuePath, adapterOut string, spawner *SubprocessSpawner, autoTrain bool, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		buffer:     buffer,
		queuePath:  queuePath,
		adapterOut: adapterOut,
		spawner:    spawner,
		autoTrain:  autoTrain,
		logger:     logger,
	}
}

// Submit buffers ex and, once the threshold is reached, flushes the
// buffer to the queue file and — if auto_train is enabled — spawns the
// LoRA subprocess against it. Safe to call concurrently; the daemon's
// chat-completion handler and its feedback-rating endpoint both call
// this directly.
func (c *Coordinator) Submit(ex Example) error {
	if !c.buffer.Add(ex) {
		return nil
	}
	return c.Flush()
}

// Flush drains the buffer to the queue file unconditionally (used by
// the lifecycle's graceful-shutdown path as well as Submit once the
// threshold trips) and, if auto_train is enabled, spawns training.
func (c *Coordinator) Flush() error {
	examples := c.buffer.drain()
	n, err := WriteQueue(c.queuePath, examples)
	if err != nil {
		return fmt.Errorf("training: flush: %w", err)
	}
	if n == 0 {
		return nil
	}
	c.logger.Info("training queue flushed", "examples", n, "path", c.queuePath)

	if !c.autoTrain || c.spawner == nil {
		return nil
	}
	if err := c.spawner.Spawn(c.queuePath, c.adapterOut); err != nil {
		return fmt.Errorf("training: spawn subprocess: %w", err)
	}
	return nil
}

// BufferLen reports how many examples are currently buffered,
// unflushed.
func (c *Coordinator) BufferLen() int { return c.buffer.Len() }
