// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AleutianAI/shammah/internal/messages"
)

func TestAnthropicProvider_SendMessage_ModelSubstitution(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("anthropic-version") != anthropicAPIVersion {
			t.Errorf("anthropic-version = %q, want %q", r.Header.Get("anthropic-version"), anthropicAPIVersion)
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		gotModel = req.Model

		resp := anthropicResponse{Content: []json.RawMessage{
			json.RawMessage(`{"type":"text","text":"hello"}`),
		}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewAnthropicProvider("test-key", "claude-configured-model", server.URL)
	p.httpClient = server.Client()

	req := Request{
		Model:    "gemini-2.5-flash", // the caller's advisory model; must never be sent
		Messages: []messages.Message{{Role: messages.RoleUser, Content: []messages.ContentBlock{messages.Text("hi")}}},
	}
	resp, err := p.SendMessage(context.Background(), req)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("Content = %q, want %q", resp.Content, "hello")
	}
	if gotModel != "claude-configured-model" {
		t.Errorf("wire model = %q, want the provider's own configured model, not the caller's", gotModel)
	}
}

func TestAnthropicProvider_SendMessage_ToolUse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := anthropicResponse{Content: []json.RawMessage{
			json.RawMessage(`{"type":"tool_use","id":"call_1","name":"get_weather","input":{"city":"nyc"}}`),
		}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewAnthropicProvider("k", "m", server.URL)
	p.httpClient = server.Client()

	resp, err := p.SendMessage(context.Background(), Request{
		Messages: []messages.Message{{Role: messages.RoleUser, Content: []messages.ContentBlock{messages.Text("weather?")}}},
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.StopReason != "tool_use" {
		t.Errorf("StopReason = %q, want tool_use", resp.StopReason)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "get_weather" {
		t.Fatalf("ToolCalls = %+v", resp.ToolCalls)
	}
}

func TestAnthropicProvider_SendMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	p := NewAnthropicProvider("k", "m", server.URL)
	p.httpClient = server.Client()

	_, err := p.SendMessage(context.Background(), Request{
		Messages: []messages.Message{{Role: messages.RoleUser, Content: []messages.ContentBlock{messages.Text("hi")}}},
	})
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestAnthropicProvider_ToolResultRoundTrip(t *testing.T) {
	var captured anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		resp := anthropicResponse{Content: []json.RawMessage{json.RawMessage(`{"type":"text","text":"done"}`)}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewAnthropicProvider("k", "m", server.URL)
	p.httpClient = server.Client()

	req := Request{
		Messages: []messages.Message{
			{Role: messages.RoleSystem, Content: []messages.ContentBlock{messages.Text("be nice")}},
			{Role: messages.RoleAssistant, Content: []messages.ContentBlock{messages.ToolUse("call_1", "lookup", json.RawMessage(`{}`))}},
			{Role: messages.RoleUser, Content: []messages.ContentBlock{messages.ToolResult("call_1", "42", false)}},
		},
	}
	if _, err := p.SendMessage(context.Background(), req); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if len(captured.System) != 1 || captured.System[0].Text != "be nice" {
		t.Errorf("System = %+v", captured.System)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("Messages = %+v, want 2 (tool_use + tool_result, system excluded)", captured.Messages)
	}
}
