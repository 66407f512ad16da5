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
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig wraps every failure Load can produce: a malformed
// file, a missing required field, or an invalid value. Per spec.md §7
// Configuration errors are surfaced at startup and never retried.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Load reads and validates path, applying environment-variable
// overrides for teacher API keys (PROVIDER_API_KEY, e.g.
// ANTHROPIC_API_KEY) so secrets never need to live in config.toml
// itself.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidConfig, path, err)
	}
	defer f.Close()

	doc, err := parseTOML(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := Default()
	if d, ok := doc.tables["daemon"]; ok {
		cfg.Daemon = DaemonConfig{
			BindAddr:                  d.str("bind_addr", cfg.Daemon.BindAddr),
			MaxSessions:               d.integer("max_sessions", cfg.Daemon.MaxSessions),
			SessionIdleTimeoutSeconds: d.integer("session_idle_timeout_seconds", cfg.Daemon.SessionIdleTimeoutSeconds),
			DrainTimeoutSeconds:       d.integer("drain_timeout_seconds", cfg.Daemon.DrainTimeoutSeconds),
		}
	}
	if b, ok := doc.tables["backend"]; ok {
		cfg.Backend = BackendConfig{
			ModelFamily:           b.str("model_family", cfg.Backend.ModelFamily),
			ModelSize:             b.str("model_size", cfg.Backend.ModelSize),
			LlamaServerBinaryPath: b.str("llama_server_binary_path", cfg.Backend.LlamaServerBinaryPath),
			AutoTrain:             b.boolean("auto_train", cfg.Backend.AutoTrain),
			BufferSize:            b.integer("buffer_size", cfg.Backend.BufferSize),
			TrainThreshold:        b.integer("train_threshold", cfg.Backend.TrainThreshold),
			PythonPath:            b.str("python_path", "python3"),
			TrainScriptPath:       b.str("train_script_path", ""),
		}
	}
	if fl, ok := doc.tables["features"]; ok {
		cfg.Features = FeatureFlags{
			CrisisDetection: fl.boolean("crisis_detection", false),
			ToolApproval:    fl.boolean("tool_approval", false),
		}
	}
	if cl, ok := doc.tables["client"]; ok {
		cfg.Client = ClientConfig{
			UseDaemon:         cl.boolean("use_daemon", cfg.Client.UseDaemon),
			DaemonBinaryPath:  cl.str("daemon_binary_path", cfg.Client.DaemonBinaryPath),
			HealthPollSeconds: cl.integer("health_poll_seconds", cfg.Client.HealthPollSeconds),
		}
	}
	for _, t := range doc.arrayTables["teachers"] {
		entry := TeacherEntry{
			Name:     t.str("name", ""),
			Provider: t.str("provider", ""),
			Model:    t.str("model", ""),
			BaseURL:  t.str("base_url", ""),
			APIKey:   t.str("api_key", ""),
		}
		applyAPIKeyOverride(&entry)
		cfg.Teachers = append(cfg.Teachers, entry)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// applyAPIKeyOverride lets an environment variable named after the
// provider (upper-cased, e.g. ANTHROPIC_API_KEY) take precedence over
// whatever api_key the file carries, so a config.toml can be committed
// to version control without a credential in it.
func applyAPIKeyOverride(entry *TeacherEntry) {
	envName := strings.ToUpper(strings.ReplaceAll(entry.Provider, "-", "_")) + "_API_KEY"
	if v := os.Getenv(envName); v != "" {
		entry.APIKey = v
	}
}
