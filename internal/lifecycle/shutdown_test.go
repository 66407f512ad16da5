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
	"testing"
)

type fakeFlusher struct {
	called bool
	err    error
}

func (f *fakeFlusher) Flush() error {
	f.called = true
	return f.err
}

func TestDrain_FlushesAndRemovesPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	if err := WritePID(path); err != nil {
		t.Fatalf("WritePID: %v", err)
	}
	flusher := &fakeFlusher{}

	Drain(path, flusher, nil)

	if !flusher.called {
		t.Error("Flush was not called")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("pid file still present after Drain: %v", err)
	}
}

func TestDrain_FlushErrorStillRemovesPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	if err := WritePID(path); err != nil {
		t.Fatalf("WritePID: %v", err)
	}
	flusher := &fakeFlusher{err: errors.New("disk full")}

	Drain(path, flusher, nil)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("pid file still present after Drain: %v", err)
	}
}

func TestDrain_NilFlusherIsTolerated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")
	if err := WritePID(path); err != nil {
		t.Fatalf("WritePID: %v", err)
	}

	Drain(path, nil, nil)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("pid file still present after Drain: %v", err)
	}
}
