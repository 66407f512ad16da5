// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
[daemon]
bind_addr = "127.0.0.1:8135"
max_sessions = 64
session_idle_timeout_seconds = 900
drain_timeout_seconds = 15

[backend]
model_family = "qwen"
model_size = "Medium"
auto_train = true
buffer_size = 50
train_threshold = 5

[features]
crisis_detection = false

[[teachers]]
name = "primary"
provider = "anthropic"
model = "claude-sonnet-4"
api_key = "file-key"

[[teachers]]
name = "fallback"
provider = "gemini"
model = "gemini-2.5-flash"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ParsesDaemonBackendAndTeachers(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Daemon.BindAddr != "127.0.0.1:8135" || cfg.Daemon.MaxSessions != 64 {
		t.Errorf("daemon = %+v", cfg.Daemon)
	}
	if !cfg.Backend.AutoTrain || cfg.Backend.BufferSize != 50 {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if len(cfg.Teachers) != 2 || cfg.Teachers[0].Name != "primary" || cfg.Teachers[1].Provider != "gemini" {
		t.Fatalf("teachers = %+v", cfg.Teachers)
	}
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	path := writeConfig(t, sampleConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Teachers[0].APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env override to win", cfg.Teachers[0].APIKey)
	}
}

func TestLoad_MissingTeachersFailsValidation(t *testing.T) {
	path := writeConfig(t, `
[daemon]
bind_addr = "127.0.0.1:8135"
max_sessions = 10
session_idle_timeout_seconds = 60
drain_timeout_seconds = 5

[backend]
model_family = "qwen"
`)
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_MalformedFileFailsToParse(t *testing.T) {
	path := writeConfig(t, "this is not toml at all {{{")
	if _, err := Load(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load err = %v, want ErrInvalidConfig", err)
	}
}

func TestDefault_SeedsKnownTuningValues(t *testing.T) {
	d := Default()
	if d.Daemon.MaxSessions != 256 || d.Backend.BufferSize != 100 {
		t.Errorf("Default() = %+v", d)
	}
}
