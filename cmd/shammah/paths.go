// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// homeDir resolves ~/.shammah, following the same
// os.UserHomeDir()+filepath.Join pattern the teacher's cmd/trace and
// cmd/routing_cache_dump use for ~/.aleutian.
func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".shammah"), nil
}

func configPath(home string) string   { return filepath.Join(home, "config.toml") }
func modelsDir(home string) string    { return filepath.Join(home, "models") }
func adaptersDir(home string) string  { return filepath.Join(home, "adapters") }
func routerStatePath(home string) string {
	return filepath.Join(home, "models", "threshold_router.json")
}
func routerCacheDir(home string) string { return filepath.Join(home, "router_cache") }
func trainingQueuePath(home string) string { return filepath.Join(home, "training_queue.jsonl") }
func feedbackPath(home string) string      { return filepath.Join(home, "feedback.jsonl") }
func daemonLogPath(home string) string     { return filepath.Join(home, "daemon.log") }
