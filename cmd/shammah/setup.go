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

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a starter config.toml and print API key guidance",
	RunE:  runSetup,
}

// defaultConfigTOML mirrors config.Default()'s values field for field;
// the interactive setup wizard itself is an external collaborator (out
// of scope here, per spec.md §1) — this just seeds a config the wizard,
// or a hand-edit, can build on.
const defaultConfigTOML = `[daemon]
bind_addr = "127.0.0.1:8135"
max_sessions = 256
session_idle_timeout_seconds = 1800
drain_timeout_seconds = 30

[backend]
model_family = "qwen"
llama_server_binary_path = "llama-server"
auto_train = false
buffer_size = 100
train_threshold = 10

[client]
use_daemon = true
health_poll_seconds = 10

[[teachers]]
name = "claude"
provider = "anthropic"
model = "claude-sonnet-4-5"
# api_key is read from ANTHROPIC_API_KEY if left blank here.
`

func runSetup(cmd *cobra.Command, args []string) error {
	home, err := homeDir()
	if err != nil {
		return err
	}
	path := configPath(home)
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("%s already exists; leaving it in place\n", path)
		return printSetupGuidance()
	}

	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", home, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTOML), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("wrote starter config to %s\n", path)
	return printSetupGuidance()
}

func printSetupGuidance() error {
	fmt.Println(`Set one provider credential before running a query, e.g.:

    export ANTHROPIC_API_KEY=sk-ant-...

Then start the daemon with "shammah daemon-start" or just run
"shammah query '...'" — the thin client auto-spawns it on first use.`)
	return nil
}
