// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package daemon implements the OpenAI-compatible HTTP surface spec.md
// §4.4 describes: it converts wire-shaped requests to the internal
// message model, asks the router whether to try the resident local
// model or forward to a teacher, and shapes whichever answer comes
// back into an OpenAI-style response.
package daemon

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/shammah/internal/config"
	"github.com/AleutianAI/shammah/internal/inference"
	"github.com/AleutianAI/shammah/internal/metrics"
	"github.com/AleutianAI/shammah/internal/providers"
	"github.com/AleutianAI/shammah/internal/router"
	"github.com/AleutianAI/shammah/internal/toolloop"
	"github.com/AleutianAI/shammah/internal/training"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Server wires every subsystem the daemon sits on top of: the router's
// local-vs-forward decision, the teacher fallback chain, the resident
// engine (nilable until GeneratorState reaches Ready), the tool loop's
// executor, the training coordinator's intake channel, and the bounded
// session map.
type Server struct {
	Config         *config.Config
	Router         *router.Router
	Teachers       *providers.FallbackChain
	Engine         *inference.Engine
	GeneratorState *inference.GeneratorState
	ToolExecutor   toolloop.Executor
	Training       *training.Chan
	Sessions       *SessionStore
	Events         *metrics.EventLogger
	LocalModelID   string

	// CrisisHook and Approver are nil by default; see extensions.go.
	CrisisHook CrisisHook
	Approver   ToolApprover

	Logger *slog.Logger

	engine    *gin.Engine
	http      *http.Server
	startedAt time.Time
}

// NewServer builds the gin engine and registers every route. Callers
// still need to call Run to actually bind and serve.
func NewServer(s *Server) *Server {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.Approver == nil {
		s.Approver = alwaysApprove{}
	}
	s.startedAt = time.Now()

	gin.SetMode(gin.ReleaseMode)
	eng := gin.New()
	eng.Use(gin.Recovery())
	eng.Use(otelgin.Middleware("shammah-daemon"))

	eng.GET("/health", s.handleHealth)
	v1 := eng.Group("/v1")
	v1.GET("/models", s.handleModels)
	v1.GET("/status", s.handleStatus)
	v1.POST("/chat/completions", s.handleChatCompletions)
	eng.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = eng
	return s
}

// Run binds addr and serves until ctx is cancelled, at which point it
// drains in-flight requests for up to drainTimeout before returning.
func (s *Server) Run(ctx context.Context, addr string, drainTimeout time.Duration) error {
	s.http = &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("daemon listening", slog.String("addr", addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	s.Logger.Info("daemon draining", slog.Duration("timeout", drainTimeout))
	return s.http.Shutdown(shutdownCtx)
}

// RunIdleSweep sweeps expired sessions on interval until ctx is done.
// Run as its own goroutine alongside Run.
func (s *Server) RunIdleSweep(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sessions.SweepIdle(); n > 0 {
				s.Logger.Debug("swept idle sessions", slog.Int("count", n))
			}
		}
	}
}
