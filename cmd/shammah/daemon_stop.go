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

	"github.com/AleutianAI/shammah/internal/lifecycle"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(daemonStopCmd)
}

var daemonStopCmd = &cobra.Command{
	Use:   "daemon-stop",
	Short: "Send a graceful shutdown signal to the running daemon",
	RunE:  runDaemonStop,
}

func runDaemonStop(cmd *cobra.Command, args []string) error {
	home, err := homeDir()
	if err != nil {
		return err
	}
	pid, err := lifecycle.Status(lifecycle.PIDPath(home))
	if errors.Is(err, lifecycle.ErrNotRunning) {
		fmt.Println("shammah daemon is not running")
		return nil
	}
	if err != nil {
		return err
	}
	if err := sendTerm(pid); err != nil {
		return fmt.Errorf("signaling daemon (pid %d): %w", pid, err)
	}
	fmt.Printf("sent shutdown signal to daemon (pid %d)\n", pid)
	return nil
}
