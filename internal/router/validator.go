// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package router

import (
	"context"
	"log/slog"
	"time"
)

// Validator periodically re-derives whether the adaptive threshold looks
// sane given the category stats accumulated so far, and logs drift. It
// supplements the adaptive-tightening rule in router.go with a slower,
// whole-state sanity pass — ported from the original implementation's
// threshold_validator, which ran this as a background job rather than
// inline with every learn call.
type Validator struct {
	router   *Router
	interval time.Duration
	logger   *slog.Logger
}

// NewValidator constructs a Validator that checks r every interval.
func NewValidator(r *Router, interval time.Duration, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Validator{router: r, interval: interval, logger: logger}
}

// Run blocks, checking on each tick until ctx is cancelled.
func (v *Validator) Run(ctx context.Context) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.checkOnce()
		}
	}
}

// checkOnce flags categories whose success rate sits far from the
// current global threshold despite having enough samples to be
// trustworthy — a sign the threshold has drifted away from what the
// category actually supports.
func (v *Validator) checkOnce() {
	snap := v.router.Snapshot()
	for cat, stats := range snap.Categories {
		if stats.LocalAttempts < 10 {
			continue
		}
		rate := stats.SuccessRate()
		drift := rate - snap.ConfidenceThreshold
		if drift < -0.25 || drift > 0.25 {
			v.logger.Warn("router: category success rate has drifted from the global threshold",
				slog.String("category", string(cat)),
				slog.Float64("success_rate", rate),
				slog.Float64("confidence_threshold", snap.ConfidenceThreshold),
				slog.Int("local_attempts", stats.LocalAttempts),
			)
		}
	}
}
