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
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/AleutianAI/shammah/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(daemonStatusCmd)
}

var daemonStatusCmd = &cobra.Command{
	Use:   "daemon-status",
	Short: "Report uptime, session count, generator phase, and forward rate",
	RunE:  runDaemonStatus,
}

// statusReport mirrors GET /v1/status's JSON body; see
// internal/daemon.handleStatus.
type statusReport struct {
	UptimeSeconds      int64   `json:"uptime_seconds"`
	GeneratorPhase     string  `json:"generator_phase"`
	ActiveSessions     int     `json:"active_sessions"`
	TotalQueries       int     `json:"total_queries"`
	TotalLocalAttempts int     `json:"total_local_attempts"`
	ForwardRate        float64 `json:"forward_rate"`
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	cfgPath, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf(exitConfigError, "%v", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + cfg.Daemon.BindAddr + "/v1/status")
	if err != nil {
		fatalf(exitDaemonUnreachable, "daemon unreachable at %s: %v", cfg.Daemon.BindAddr, err)
	}
	defer resp.Body.Close()

	var status statusReport
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decoding status response: %w", err)
	}

	uptime := time.Duration(status.UptimeSeconds) * time.Second
	fmt.Printf("uptime:           %s\n", uptime)
	fmt.Printf("generator phase:  %s\n", status.GeneratorPhase)
	fmt.Printf("active sessions:  %d\n", status.ActiveSessions)
	fmt.Printf("total queries:    %d\n", status.TotalQueries)
	fmt.Printf("local attempts:   %d\n", status.TotalLocalAttempts)
	fmt.Printf("forward rate:     %.1f%%\n", status.ForwardRate*100)
	return nil
}
