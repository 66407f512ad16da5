// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metrics exposes the daemon's Prometheus instrumentation
// (router decisions, provider latency/failures, training buffer
// depth) and the structured event log spec.md's component table
// names for everything that doesn't fit a numeric gauge or counter.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shammah"

var (
	// RouterDecisions counts Local vs Forward outcomes, labeled by the
	// reason field the router's RouteDecision sum type carries for
	// Forward, or "local" for Local.
	RouterDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "router",
		Name:      "decisions_total",
		Help:      "Routing decisions by outcome/reason",
	}, []string{"outcome"})

	// RouterConfidence observes the confidence score of every Local
	// decision, for tuning the adaptive threshold out of band.
	RouterConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "router",
		Name:      "local_confidence",
		Help:      "Confidence score of Local routing decisions",
		Buckets:   []float64{0.5, 0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.95, 1.0},
	})

	// ProviderCalls counts fallback-chain attempts by provider tag and
	// outcome (success/failure).
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "providers",
		Name:      "calls_total",
		Help:      "Teacher provider calls by provider and outcome",
	}, []string{"provider", "outcome"})

	// ProviderLatency observes wall-clock duration of a single
	// provider call, regardless of outcome.
	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "providers",
		Name:      "latency_seconds",
		Help:      "Teacher provider call latency",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	// LocalGenerationLatency observes wall-clock duration of a local
	// inference engine generation call.
	LocalGenerationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "inference",
		Name:      "generation_latency_seconds",
		Help:      "Local model generation latency",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 60},
	})

	// TrainingBufferDepth reports the training coordinator's current
	// buffered-example count.
	TrainingBufferDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "training",
		Name:      "buffer_depth",
		Help:      "Number of WeightedExamples currently buffered, unflushed",
	})

	// SessionCount reports the daemon's active session-map size.
	SessionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "daemon",
		Name:      "sessions_active",
		Help:      "Number of sessions currently held in the LRU session map",
	})
)

// RecordRouterDecision increments RouterDecisions and, for Local
// decisions, observes confidence.
func RecordRouterDecision(outcome string, confidence float64) {
	RouterDecisions.WithLabelValues(outcome).Inc()
	if outcome == "local" {
		RouterConfidence.Observe(confidence)
	}
}

// RecordProviderCall observes one fallback-chain attempt's latency and
// outcome for provider.
func RecordProviderCall(provider string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	ProviderCalls.WithLabelValues(provider, outcome).Inc()
	ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordLocalGeneration observes one local inference call's duration.
func RecordLocalGeneration(d time.Duration) {
	LocalGenerationLatency.Observe(d.Seconds())
}
