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

var rootCmd = &cobra.Command{
	Use:   "shammah",
	Short: "shammah — a local-first LLM proxy daemon",
	Long: `shammah proxies a shell or client to one or more remote teacher
LLM providers, learning over queries which ones a resident local model
can already answer on its own.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	// With no subcommand, drop into the interactive REPL — the spec's
	// "default (interactive)" CLI surface entry.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepl(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var cfgFlag string

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFlag, "config", "", "path to config.toml (defaults to ~/.shammah/config.toml)")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitGenericFailure)
	}
}

// resolveConfigPath returns the --config flag value, or the default
// ~/.shammah/config.toml location.
func resolveConfigPath() (string, error) {
	if cfgFlag != "" {
		return cfgFlag, nil
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return configPath(home), nil
}
