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
	"errors"
	"fmt"
	"os"

	"github.com/AleutianAI/shammah/internal/lifecycle"
	"github.com/spf13/cobra"
)

var daemonStartBind string

func init() {
	daemonStartCmd.Flags().StringVar(&daemonStartBind, "bind", "", "address to listen on (overrides config)")
	rootCmd.AddCommand(daemonStartCmd)
}

var daemonStartCmd = &cobra.Command{
	Use:   "daemon-start",
	Short: "Start the daemon detached in the background",
	RunE:  runDaemonStart,
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	home, err := homeDir()
	if err != nil {
		return err
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving own executable path: %w", err)
	}

	cmdArgs := []string{"daemon"}
	if daemonStartBind != "" {
		cmdArgs = append(cmdArgs, "--bind", daemonStartBind)
	}
	if cfgFlag != "" {
		cmdArgs = append(cmdArgs, "--config", cfgFlag)
	}

	pidPath := lifecycle.PIDPath(home)
	err = lifecycle.SpawnDetached(pidPath, exe, cmdArgs, daemonLogPath(home))
	if errors.Is(err, lifecycle.ErrAlreadyRunning) {
		fatalf(exitDaemonRunning, "daemon already running")
	}
	if err != nil {
		return fmt.Errorf("spawning daemon: %w", err)
	}
	fmt.Println("shammah daemon started")
	return nil
}
