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
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestSpawnDetached_StartsProcessAndWritesLog(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exercised via sh on unix; Windows spawn path is covered by code review, not CI here")
	}
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "daemon.pid")
	logPath := filepath.Join(dir, "daemon.log")

	if err := SpawnDetached(pidPath, "/bin/sh", []string{"-c", "echo started"}, logPath); err != nil {
		t.Fatalf("SpawnDetached: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(logPath); err == nil && len(data) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("log file %s never received output", logPath)
}

func TestSpawnDetached_RefusesWhenAlreadyRunning(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "daemon.pid")
	if err := WritePID(pidPath); err != nil {
		t.Fatalf("WritePID: %v", err)
	}

	err := SpawnDetached(pidPath, "/bin/sh", []string{"-c", "true"}, filepath.Join(dir, "daemon.log"))
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("SpawnDetached err = %v, want ErrAlreadyRunning", err)
	}
}
