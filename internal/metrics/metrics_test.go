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
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRouterDecision_IncrementsCounterAndHistogram(t *testing.T) {
	before := testutil.ToFloat64(RouterDecisions.WithLabelValues("local"))
	RecordRouterDecision("local", 0.82)
	after := testutil.ToFloat64(RouterDecisions.WithLabelValues("local"))
	if after != before+1 {
		t.Errorf("RouterDecisions[local] = %v, want %v", after, before+1)
	}
}

func TestRecordProviderCall_LabelsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(ProviderCalls.WithLabelValues("anthropic", "failure"))
	RecordProviderCall("anthropic", 50*time.Millisecond, errors.New("boom"))
	after := testutil.ToFloat64(ProviderCalls.WithLabelValues("anthropic", "failure"))
	if after != before+1 {
		t.Errorf("ProviderCalls[anthropic,failure] = %v, want %v", after, before+1)
	}
}

func TestEventLogger_RouteDecisionEmitsStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	e := NewEventLogger(logger)

	e.RouteDecision("sess-1", "local", "", 0.9)

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("event log line is not valid JSON: %v", err)
	}
	if decoded["event"] != "route_decision" || decoded["session_id"] != "sess-1" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestEventLogger_LocalGenerationLogsWarnOnError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	e := NewEventLogger(logger)

	e.LocalGeneration("sess-1", 120, 0, errors.New("generator offline"))

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", decoded["level"])
	}
	if decoded["error"] != "generator offline" {
		t.Errorf("error = %v", decoded["error"])
	}
}
