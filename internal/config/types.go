// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads `~/.shammah/config.toml`: the teacher provider
// array, backend/model selection, daemon tuning knobs, and feature
// flags, with environment-variable overrides for API keys so secrets
// never need to live on disk.
package config

import "time"

// TeacherEntry is one link in the fallback chain, in priority order.
type TeacherEntry struct {
	Name    string `toml:"name" validate:"required"`
	Provider string `toml:"provider" validate:"required,oneof=anthropic openai gemini openai-compat"`
	Model   string `toml:"model" validate:"required"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// DaemonConfig holds the bind address and tuning knobs spec.md's
// original_source-supplemented `[daemon]` table adds.
type DaemonConfig struct {
	BindAddr                  string `toml:"bind_addr" validate:"required"`
	MaxSessions               int    `toml:"max_sessions" validate:"min=1"`
	SessionIdleTimeoutSeconds int    `toml:"session_idle_timeout_seconds" validate:"min=1"`
	DrainTimeoutSeconds       int    `toml:"drain_timeout_seconds" validate:"min=1"`
}

// SessionIdleTimeout and DrainTimeout convert the config's plain-int
// seconds fields to time.Duration for callers that want one.
func (d DaemonConfig) SessionIdleTimeout() time.Duration {
	return time.Duration(d.SessionIdleTimeoutSeconds) * time.Second
}

func (d DaemonConfig) DrainTimeout() time.Duration {
	return time.Duration(d.DrainTimeoutSeconds) * time.Second
}

// BackendConfig selects the resident local model family/size and the
// training coordinator's tuning.
type BackendConfig struct {
	ModelFamily           string `toml:"model_family" validate:"required"`
	ModelSize             string `toml:"model_size"`
	LlamaServerBinaryPath string `toml:"llama_server_binary_path"`
	AutoTrain             bool   `toml:"auto_train"`
	BufferSize            int    `toml:"buffer_size"`
	TrainThreshold        int    `toml:"train_threshold"`
	PythonPath            string `toml:"python_path"`
	TrainScriptPath       string `toml:"train_script_path"`
}

// FeatureFlags toggles adjunct behavior the CORE leaves as extension
// points (crisis detection, tool approval) rather than implementing.
type FeatureFlags struct {
	CrisisDetection bool `toml:"crisis_detection"`
	ToolApproval    bool `toml:"tool_approval"`
}

// ClientConfig governs the thin client's daemon-management behavior
// per spec.md §4.7: whether to route through a daemon at all, where its
// binary lives for auto-spawn, and how long to wait for it to come up.
type ClientConfig struct {
	UseDaemon          bool   `toml:"use_daemon"`
	DaemonBinaryPath   string `toml:"daemon_binary_path"`
	HealthPollSeconds  int    `toml:"health_poll_seconds" validate:"min=1"`
}

// HealthPollTimeout converts HealthPollSeconds to a time.Duration.
func (c ClientConfig) HealthPollTimeout() time.Duration {
	return time.Duration(c.HealthPollSeconds) * time.Second
}

// Config is the fully parsed, validated, env-overridden configuration.
type Config struct {
	Daemon   DaemonConfig   `toml:"daemon" validate:"required"`
	Backend  BackendConfig  `toml:"backend" validate:"required"`
	Teachers []TeacherEntry `toml:"teachers" validate:"required,min=1,dive"`
	Features FeatureFlags   `toml:"features"`
	Client   ClientConfig   `toml:"client"`
}

// Default returns a Config with the tuning knobs spec.md names as
// defaults, for tests and for `setup` to seed a fresh config.toml.
func Default() Config {
	return Config{
		Daemon: DaemonConfig{
			BindAddr:                  "127.0.0.1:8135",
			MaxSessions:               256,
			SessionIdleTimeoutSeconds: 1800,
			DrainTimeoutSeconds:       30,
		},
		Backend: BackendConfig{
			ModelFamily:           "qwen",
			LlamaServerBinaryPath: "llama-server",
			AutoTrain:             false,
			BufferSize:            100,
			TrainThreshold:        10,
		},
		Client: ClientConfig{
			UseDaemon:         true,
			HealthPollSeconds: 10,
		},
	}
}
