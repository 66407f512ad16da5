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
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// loraDebounce coalesces the burst of write events a training run's
// rename-into-place produces into one reload.
const loraDebounce = 500 * time.Millisecond

// LoRAWatcher watches the adapter file's directory and calls the
// engine's ReloadLoRA whenever the file's mtime changes, without
// touching the resident base model (spec.md §4.3's hot-reload
// requirement). It watches the directory rather than the file itself
// because an atomic rename-into-place — the training subprocess's own
// publish step — replaces the inode fsnotify was watching.
type LoRAWatcher struct {
	engine  *Engine
	path    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// NewLoRAWatcher creates a watcher for path, the adapter file the
// engine should reload on change. Call Run to start watching.
func NewLoRAWatcher(engine *Engine, path string, logger *slog.Logger) (*LoRAWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	return &LoRAWatcher{engine: engine, path: path, logger: logger, watcher: w}, nil
}

// Run blocks, applying debounced reloads until ctx is cancelled. Meant
// to be launched with `go watcher.Run(ctx)` alongside the daemon's other
// background loops.
func (w *LoRAWatcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	reload := func() {
		if err := w.engine.ReloadLoRA(w.path); err != nil {
			w.logger.Error("LoRA hot reload failed", "path", w.path, "error", err)
			return
		}
		w.logger.Info("LoRA adapter reloaded", "path", w.path)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(loraDebounce, reload)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("LoRA watcher error", "error", err)
		}
	}
}
