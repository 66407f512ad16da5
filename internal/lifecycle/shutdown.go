// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// WaitForSignal blocks until SIGINT or SIGTERM arrives, or ctx is
// cancelled, then returns. Mirrors the teacher daemon's
// handleSignals/Shutdown split, but returns control to the caller
// instead of calling os.Exit itself — the daemon command decides the
// exit code after its own drain sequence completes.
func WaitForSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-ctx.Done():
	}
}

// Flusher is implemented by internal/training.Coordinator; declared
// here so lifecycle doesn't import training just for this one method.
type Flusher interface {
	Flush() error
}

// Drain runs the shutdown sequence spec.md §4.7 names: stop accepting
// new work (the caller does this by cancelling the server's context
// before calling Drain), flush the training buffer to disk, then
// remove the PID file. Errors are logged, not returned — a failed
// flush shouldn't block the process from exiting, since the queue file
// is retried wholesale on the next auto_train cycle.
func Drain(pidPath string, flusher Flusher, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if flusher != nil {
		if err := flusher.Flush(); err != nil {
			logger.Error("training buffer flush failed during shutdown", "error", err)
		}
	}
	if err := RemovePID(pidPath); err != nil {
		logger.Error("failed to remove pid file", "error", err)
	}
}
