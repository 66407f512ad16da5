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
	"log/slog"
	"os"
	"time"

	"github.com/AleutianAI/shammah/internal/lifecycle"
	"github.com/AleutianAI/shammah/internal/router"
	"github.com/spf13/cobra"
)

const routerSaveInterval = 2 * time.Minute

var daemonBind string

func init() {
	daemonCmd.Flags().StringVar(&daemonBind, "bind", "", "address to listen on (overrides config)")
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the shammah daemon in the foreground",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	home, err := homeDir()
	if err != nil {
		return err
	}
	pidPath := lifecycle.PIDPath(home)
	if _, err := lifecycle.Status(pidPath); err == nil {
		fatalf(exitDaemonRunning, "daemon already running (pid file %s)", pidPath)
	}
	if err := lifecycle.WritePID(pidPath); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfgPath, err := resolveConfigPath()
	if err != nil {
		return err
	}
	a, err := newApp(cfgPath, logger)
	if err != nil {
		fatalf(exitConfigError, "%v", err)
	}
	if daemonBind != "" {
		a.cfg.Daemon.BindAddr = daemonBind
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader, err := a.bootstrapLoader(ctx)
	if err != nil {
		return fmt.Errorf("configuring local backend: %w", err)
	}
	go loader.Run(ctx)
	go a.server.RunIdleSweep(ctx, time.Minute)
	go a.training.Run(ctx, a.coord)
	go router.NewValidator(a.router, 5*time.Minute, logger).Run(ctx)
	go a.saveRouterPeriodically(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Run(ctx, a.cfg.Daemon.BindAddr, a.cfg.Daemon.DrainTimeout())
	}()

	lifecycle.WaitForSignal(ctx)
	cancel()

	if err := a.router.Save(context.Background(), a.store); err != nil {
		logger.Error("final router save failed", "error", err)
	}
	if err := a.router.Close(); err != nil {
		logger.Error("closing router categorization cache failed", "error", err)
	}
	lifecycle.Drain(pidPath, a.coord, logger)

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *app) saveRouterPeriodically(ctx context.Context) {
	t := time.NewTicker(routerSaveInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := a.router.Save(ctx, a.store); err != nil {
				a.logger.Error("periodic router save failed", "error", err)
			}
		}
	}
}
