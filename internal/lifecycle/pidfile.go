// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lifecycle manages the daemon process itself, independent of
// what it serves: a PID file recording who's running, a liveness check
// against that PID, detached background spawn for `daemon-start`, and
// signal-driven graceful shutdown for `daemon`. Grounded on
// rubicon-ClaraVerse's mcp-bridge daemon package, adapted from its
// socket-dial liveness check to the zero-signal check spec.md's
// process-supervision section calls for.
package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNotRunning is returned by Status when no PID file exists or the
// recorded PID is no longer alive.
var ErrNotRunning = errors.New("lifecycle: daemon is not running")

// PIDPath returns the PID file location under the shammah home
// directory, creating the directory if needed.
func PIDPath(homeDir string) string {
	return filepath.Join(homeDir, "daemon.pid")
}

// WritePID records the current process's PID at path.
func WritePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("lifecycle: mkdir %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// RemovePID deletes the PID file. Not finding it is not an error —
// shutdown may race a concurrent cleanup, or the file may never have
// been written if startup failed before reaching that step.
func RemovePID(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("lifecycle: remove %s: %w", path, err)
	}
	return nil
}

// ReadPID parses the PID recorded at path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: read %s: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("lifecycle: parse pid in %s: %w", path, err)
	}
	return pid, nil
}

// Status reads path and reports the live PID, or ErrNotRunning if the
// file is absent or the recorded process is gone. A present-but-dead
// PID file is removed as part of this check, the same staleness
// cleanup the teacher's IsRunning performs on a dead socket.
func Status(path string) (pid int, err error) {
	pid, err = ReadPID(path)
	if err != nil {
		return 0, ErrNotRunning
	}
	if !processAlive(pid) {
		_ = RemovePID(path)
		return 0, ErrNotRunning
	}
	return pid, nil
}
