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
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/shammah/internal/client"
	"github.com/AleutianAI/shammah/internal/config"
	"github.com/AleutianAI/shammah/internal/providers"
	"github.com/spf13/cobra"
)

var queryDirect bool

func init() {
	queryCmd.Flags().BoolVar(&queryDirect, "direct", false, "fail instead of degrading to a direct teacher call if the daemon is unreachable")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query TEXT",
	Short: "Send a single query through the daemon (or directly, with --direct)",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

	cfgPath, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf(exitConfigError, "%v", err)
	}

	c, err := buildClient(cfg)
	if err != nil {
		return err
	}

	result, err := c.Query(context.Background(), "", text, !queryDirect)
	if err != nil {
		if errors.Is(err, client.ErrDaemonUnreachable) {
			fatalf(exitDaemonUnreachable, "%v", err)
		}
		return err
	}
	if result.Degraded {
		fmt.Fprintf(cmd.ErrOrStderr(), "(daemon unavailable, answered directly: %v)\n", result.DegradeErr)
	}
	fmt.Println(result.Content)
	return nil
}

// buildClient wires the teacher fallback chain the client degrades to
// when the daemon can't be reached, and a client.Client bound to the
// shammah home directory.
func buildClient(cfg *config.Config) (*client.Client, error) {
	home, err := homeDir()
	if err != nil {
		return nil, err
	}
	providerList, err := buildProviders(cfg.Teachers)
	if err != nil {
		return nil, fmt.Errorf("building teacher providers: %w", err)
	}
	chain, err := providers.NewFallbackChain(providerList, nil)
	if err != nil {
		return nil, fmt.Errorf("building fallback chain: %w", err)
	}
	return client.New(cfg, home, chain, nil), nil
}
