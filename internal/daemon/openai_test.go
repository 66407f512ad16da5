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
	"encoding/json"
	"testing"

	"github.com/AleutianAI/shammah/internal/messages"
)

func TestToInternalMessages_ToolCallBecomesToolUseBlock(t *testing.T) {
	in := []ChatMessage{
		{Role: "user", Content: "what's the weather"},
		{
			Role: "assistant",
			ToolCalls: []ChatToolCall{
				{ID: "call_1", Type: "function", Function: ChatToolCallFunction{Name: "get_weather", Arguments: `{"city":"nyc"}`}},
			},
		},
	}
	out := toInternalMessages(in)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if !out[1].HasToolUse() {
		t.Fatalf("out[1] = %+v, want a tool-use block", out[1])
	}
	if out[1].Content[0].ToolUseID != "call_1" || out[1].Content[0].ToolName != "get_weather" {
		t.Errorf("tool use block = %+v", out[1].Content[0])
	}
}

func TestToInternalMessages_ToolRoleBecomesUserToolResult(t *testing.T) {
	in := []ChatMessage{
		{Role: "tool", Content: "72F and sunny", ToolCallID: "call_1"},
	}
	out := toInternalMessages(in)
	if len(out) != 1 || out[0].Role != messages.RoleUser {
		t.Fatalf("out = %+v, want one user-role message", out)
	}
	block := out[0].Content[0]
	if block.Kind != messages.BlockToolResult || block.ToolResultForID != "call_1" || block.ToolResultBody != "72F and sunny" {
		t.Errorf("block = %+v", block)
	}
}

func TestToOpenAIMessages_ToolResultRoundTripsToToolRole(t *testing.T) {
	internal := messages.Message{
		Role:    messages.RoleUser,
		Content: []messages.ContentBlock{messages.ToolResult("call_1", "72F and sunny", false)},
	}
	out := toOpenAIMessages(internal)
	if len(out) != 1 || out[0].Role != "tool" || out[0].ToolCallID != "call_1" || out[0].Content != "72F and sunny" {
		t.Fatalf("out = %+v", out)
	}
}

func TestToOpenAIMessages_ToolUseBecomesToolCalls(t *testing.T) {
	internal := messages.Message{
		Role: messages.RoleAssistant,
		Content: []messages.ContentBlock{
			messages.Text("let me check"),
			messages.ToolUse("call_2", "get_weather", json.RawMessage(`{"city":"nyc"}`)),
		},
	}
	out := toOpenAIMessages(internal)
	if len(out) != 1 {
		t.Fatalf("out = %+v, want one message", out)
	}
	if out[0].Content != "let me check" || len(out[0].ToolCalls) != 1 || out[0].ToolCalls[0].Function.Name != "get_weather" {
		t.Errorf("out[0] = %+v", out[0])
	}
}

func TestFinishReason(t *testing.T) {
	plain := messages.Message{Content: []messages.ContentBlock{messages.Text("hi")}}
	if finishReason(plain) != "stop" {
		t.Errorf("finishReason(plain) = %q, want stop", finishReason(plain))
	}
	withTool := messages.Message{Content: []messages.ContentBlock{messages.ToolUse("1", "f", nil)}}
	if finishReason(withTool) != "tool_calls" {
		t.Errorf("finishReason(withTool) = %q, want tool_calls", finishReason(withTool))
	}
}

func TestToProviderTools_ParsesParameters(t *testing.T) {
	in := []ChatTool{{
		Type: "function",
		Function: ChatFunction{
			Name:       "get_weather",
			Parameters: json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}},"required":["city"]}`),
		},
	}}
	out := toProviderTools(in)
	if len(out) != 1 || out[0].Function.Name != "get_weather" || out[0].Function.Parameters.Type != "object" {
		t.Fatalf("out = %+v", out)
	}
	if len(out[0].Function.Parameters.Required) != 1 || out[0].Function.Parameters.Required[0] != "city" {
		t.Errorf("required = %+v", out[0].Function.Parameters.Required)
	}
}

func TestToToolDefinitions_DefaultsEmptyParameters(t *testing.T) {
	out := toToolDefinitions([]ChatTool{{Type: "function", Function: ChatFunction{Name: "noop"}}})
	if len(out) != 1 || string(out[0].Parameters) != `{"type":"object"}` {
		t.Fatalf("out = %+v", out)
	}
}
