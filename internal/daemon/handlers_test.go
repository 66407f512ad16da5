// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package daemon

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AleutianAI/shammah/internal/config"
	"github.com/AleutianAI/shammah/internal/inference"
	"github.com/AleutianAI/shammah/internal/metrics"
	"github.com/AleutianAI/shammah/internal/providers"
	"github.com/AleutianAI/shammah/internal/router"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer wires a Server whose local engine is never Ready (so
// every decision takes the cold-start Forward path) against an
// httptest-backed teacher, matching the pattern the provider tests use
// for a fake upstream API.
func newTestServer(t *testing.T, teacherBody string) (*Server, *httptest.Server) {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(teacherBody))
	}))
	t.Cleanup(upstream.Close)

	provider := providers.NewOpenAICompatProvider("test-key", "test-model", upstream.URL, "test-teacher")
	chain, err := providers.NewFallbackChain([]providers.Provider{provider}, discardLogger())
	if err != nil {
		t.Fatalf("NewFallbackChain: %v", err)
	}

	state := inference.NewGeneratorState()
	sessions, err := NewSessionStore(8, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	t.Cleanup(sessions.Close)

	srv := NewServer(&Server{
		Config:         &config.Config{Teachers: []config.TeacherEntry{{Name: "primary", Provider: "openai-compat", Model: "test-model"}}},
		Router:         router.New(router.NewState(), discardLogger(), state.Ready),
		Teachers:       chain,
		GeneratorState: state,
		Sessions:       sessions,
		Events:         metrics.NewEventLogger(discardLogger()),
		LocalModelID:   "local-qwen",
		Logger:         discardLogger(),
	})
	return srv, upstream
}

func doChatCompletion(t *testing.T, srv *Server, req ChatCompletionRequest) (*httptest.ResponseRecorder, ChatCompletionResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, httpReq)

	var resp ChatCompletionResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v: %s", err, rec.Body.String())
		}
	}
	return rec, resp
}

func TestHandleChatCompletions_ColdStartForwardsToTeacher(t *testing.T) {
	srv, _ := newTestServer(t, `{"choices":[{"message":{"role":"assistant","content":"hello there"},"finish_reason":"stop"}]}`)

	rec, resp := doChatCompletion(t, srv, ChatCompletionRequest{
		Model:    "qwen",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "hello there" {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Choices[0].FinishReason != "stop" {
		t.Errorf("finish_reason = %q, want stop", resp.Choices[0].FinishReason)
	}
	if resp.SessionID == "" {
		t.Error("SessionID unset, want a generated session id")
	}
}

func TestHandleChatCompletions_LocalOnlyWithoutReadyEngineReturns503(t *testing.T) {
	srv, _ := newTestServer(t, `{"choices":[{"message":{"role":"assistant","content":"unused"}}]}`)

	rec, _ := doChatCompletion(t, srv, ChatCompletionRequest{
		Model:     "qwen",
		Messages:  []ChatMessage{{Role: "user", Content: "hi"}},
		LocalOnly: true,
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503; body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleChatCompletions_RejectsStreamingRequests(t *testing.T) {
	srv, _ := newTestServer(t, `{"choices":[{"message":{"role":"assistant","content":"unused"}}]}`)

	rec, _ := doChatCompletion(t, srv, ChatCompletionRequest{
		Model:    "qwen",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
		Stream:   true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandleChatCompletions_SessionIDReusesConversationHistory(t *testing.T) {
	srv, _ := newTestServer(t, `{"choices":[{"message":{"role":"assistant","content":"reply"},"finish_reason":"stop"}]}`)

	_, first := doChatCompletion(t, srv, ChatCompletionRequest{
		Model:    "qwen",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	sessID := first.SessionID
	if sessID == "" {
		t.Fatal("first response has no session id")
	}

	doChatCompletion(t, srv, ChatCompletionRequest{
		Model:     "qwen",
		Messages:  []ChatMessage{{Role: "user", Content: "follow up"}},
		SessionID: sessID,
	})

	sess := srv.Sessions.Get(sessID)
	if sess == nil {
		t.Fatal("session evicted unexpectedly")
	}
	if len(sess.Conversation) < 4 {
		t.Fatalf("Conversation = %+v, want at least 4 entries across two turns", sess.Conversation)
	}
}

func TestHandleHealth_ReportsStartingBeforeEngineReady(t *testing.T) {
	srv, _ := newTestServer(t, "{}")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "starting" {
		t.Errorf("status = %v, want starting", body["status"])
	}
}

func TestHandleStatus_ReportsUptimeAndForwardRate(t *testing.T) {
	srv, _ := newTestServer(t, `{"choices":[{"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}]}`)
	doChatCompletion(t, srv, ChatCompletionRequest{
		Model:    "qwen",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	var body struct {
		UptimeSeconds int64   `json:"uptime_seconds"`
		ForwardRate   float64 `json:"forward_rate"`
		TotalQueries  int     `json:"total_queries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.UptimeSeconds < 0 {
		t.Errorf("uptime_seconds = %d, want >= 0", body.UptimeSeconds)
	}
	if body.TotalQueries != 1 {
		t.Errorf("total_queries = %d, want 1", body.TotalQueries)
	}
	if body.ForwardRate != 1.0 {
		t.Errorf("forward_rate = %v, want 1.0 (cold-start forward)", body.ForwardRate)
	}
}

func TestHandleModels_ListsLocalAndTeacherModels(t *testing.T) {
	srv, _ := newTestServer(t, "{}")
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	var body struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Data) != 2 {
		t.Fatalf("models = %+v, want local + 1 teacher", body.Data)
	}
}
