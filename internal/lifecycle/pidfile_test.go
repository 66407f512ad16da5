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
	"strconv"
	"testing"
)

func TestWritePIDReadPIDRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	if err := WritePID(path); err != nil {
		t.Fatalf("WritePID: %v", err)
	}
	pid, err := ReadPID(path)
	if err != nil {
		t.Fatalf("ReadPID: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}
}

func TestStatus_LiveProcessReturnsPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	if err := WritePID(path); err != nil {
		t.Fatalf("WritePID: %v", err)
	}
	pid, err := Status(path)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}
}

func TestStatus_DeadProcessRemovesStaleFileAndReturnsNotRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	// PID 1 is init on any Unix box this test runs on but owned by
	// root, not us; use an implausibly high PID instead so the check
	// doesn't depend on EPERM semantics across platforms.
	if err := os.WriteFile(path, []byte(strconv.Itoa(999999)), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Status(path); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Status err = %v, want ErrNotRunning", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("stale pid file still present: %v", err)
	}
}

func TestStatus_MissingFileReturnsNotRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.pid")
	if _, err := Status(path); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Status err = %v, want ErrNotRunning", err)
	}
}

func TestRemovePID_MissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.pid")
	if err := RemovePID(path); err != nil {
		t.Fatalf("RemovePID: %v", err)
	}
}
