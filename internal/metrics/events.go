// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metrics

import (
	"log/slog"
	"time"
)

// EventLogger emits the structured event log spec.md's component
// table names alongside the Prometheus counters above: a durable,
// queryable record of individual routing/generation/training events,
// not just their aggregates.
type EventLogger struct {
	logger *slog.Logger
}

// NewEventLogger wraps logger for event emission. Callers typically
// pass a *slog.Logger backed by slog.NewJSONHandler writing to a
// dedicated events file, separate from the daemon's own operational
// log.
func NewEventLogger(logger *slog.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// RouteDecision logs one router outcome.
func (e *EventLogger) RouteDecision(sessionID, outcome, reason string, confidence float64) {
	e.logger.Info("route_decision",
		slog.String("event", "route_decision"),
		slog.String("session_id", sessionID),
		slog.String("outcome", outcome),
		slog.String("reason", reason),
		slog.Float64("confidence", confidence),
		slog.Int64("timestamp", time.Now().UnixMilli()),
	)
}

// LocalGeneration logs one completed local-path generation.
func (e *EventLogger) LocalGeneration(sessionID string, durationMs int64, toolCalls int, err error) {
	attrs := []any{
		slog.String("event", "local_generation"),
		slog.String("session_id", sessionID),
		slog.Int64("duration_ms", durationMs),
		slog.Int("tool_calls", toolCalls),
		slog.Int64("timestamp", time.Now().UnixMilli()),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		e.logger.Warn("local_generation", attrs...)
		return
	}
	e.logger.Info("local_generation", attrs...)
}

// ProviderCall logs one fallback-chain attempt.
func (e *EventLogger) ProviderCall(sessionID, provider string, durationMs int64, err error) {
	attrs := []any{
		slog.String("event", "provider_call"),
		slog.String("session_id", sessionID),
		slog.String("provider", provider),
		slog.Int64("duration_ms", durationMs),
		slog.Int64("timestamp", time.Now().UnixMilli()),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		e.logger.Warn("provider_call", attrs...)
		return
	}
	e.logger.Info("provider_call", attrs...)
}

// TrainingFlush logs a training queue flush and whether auto_train
// spawned a subprocess.
func (e *EventLogger) TrainingFlush(lines int, spawned bool) {
	e.logger.Info("training_flush",
		slog.String("event", "training_flush"),
		slog.Int("lines", lines),
		slog.Bool("spawned_subprocess", spawned),
		slog.Int64("timestamp", time.Now().UnixMilli()),
	)
}
