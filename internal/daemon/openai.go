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

	"github.com/AleutianAI/shammah/internal/messages"
	"github.com/AleutianAI/shammah/internal/providers"
	"github.com/AleutianAI/shammah/internal/toolloop"
)

// ChatMessage is the OpenAI chat-completions message shape spec.md §6
// names, down to the optional tool_calls/tool_call_id fields a tool
// round-trip carries.
type ChatMessage struct {
	Role       string         `json:"role" binding:"required,oneof=system user assistant tool"`
	Content    string         `json:"content"`
	ToolCalls  []ChatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type ChatToolCall struct {
	ID       string               `json:"id"`
	Type     string               `json:"type"`
	Function ChatToolCallFunction `json:"function"`
}

type ChatToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatTool is the `{type:"function", function:{name, description?,
// parameters}}` tool-definition shape spec.md §6 names.
type ChatTool struct {
	Type     string       `json:"type" binding:"required,eq=function"`
	Function ChatFunction `json:"function"`
}

type ChatFunction struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ChatCompletionRequest is the daemon's inbound `/v1/chat/completions`
// body. SessionID is a non-standard extension alongside local_only: a
// client that wants the daemon to remember conversation history across
// requests echoes back the session id the first response returned.
type ChatCompletionRequest struct {
	Model       string        `json:"model" binding:"required"`
	Messages    []ChatMessage `json:"messages" binding:"required,min=1,dive"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
	TopP        *float32      `json:"top_p,omitempty"`
	N           *int          `json:"n,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Tools       []ChatTool    `json:"tools,omitempty"`
	LocalOnly   bool          `json:"local_only,omitempty"`
	SessionID   string        `json:"session_id,omitempty"`
}

type ChatCompletionResponse struct {
	ID        string                 `json:"id"`
	Object    string                 `json:"object"`
	Created   int64                  `json:"created"`
	Model     string                 `json:"model"`
	SessionID string                 `json:"session_id,omitempty"`
	Choices   []ChatCompletionChoice `json:"choices"`
	Usage     Usage                  `json:"usage"`
}

type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// toInternalMessages converts the OpenAI wire shape to the internal
// message list (spec.md §4.4 step 2): tool_calls become ToolUse
// blocks, and an OpenAI `role:"tool"` message becomes an internal
// `role:"user"` message carrying one ToolResult block.
func toInternalMessages(in []ChatMessage) []messages.Message {
	out := make([]messages.Message, 0, len(in))
	for _, m := range in {
		if m.Role == "tool" {
			out = append(out, messages.Message{
				Role:    messages.RoleUser,
				Content: []messages.ContentBlock{messages.ToolResult(m.ToolCallID, m.Content, false)},
			})
			continue
		}

		var blocks []messages.ContentBlock
		if m.Content != "" {
			blocks = append(blocks, messages.Text(m.Content))
		}
		for _, tc := range m.ToolCalls {
			blocks = append(blocks, messages.ToolUse(tc.ID, tc.Function.Name, json.RawMessage(tc.Function.Arguments)))
		}
		out = append(out, messages.Message{Role: messages.Role(m.Role), Content: blocks})
	}
	return out
}

// toOpenAIMessages converts an internal message back to the OpenAI
// wire shape. A message carrying only ToolResult blocks expands to one
// `role:"tool"` message per block, preserving each block's
// tool_call_id — the round trip the daemon's invariants require.
func toOpenAIMessages(m messages.Message) []ChatMessage {
	var toolResults []messages.ContentBlock
	var text string
	var toolCalls []ChatToolCall
	for _, b := range m.Content {
		switch b.Kind {
		case messages.BlockText:
			text += b.Text
		case messages.BlockToolUse:
			toolCalls = append(toolCalls, ChatToolCall{
				ID:   b.ToolUseID,
				Type: "function",
				Function: ChatToolCallFunction{
					Name:      b.ToolName,
					Arguments: string(b.ToolArgs),
				},
			})
		case messages.BlockToolResult:
			toolResults = append(toolResults, b)
		}
	}

	var out []ChatMessage
	for _, tr := range toolResults {
		out = append(out, ChatMessage{Role: "tool", Content: tr.ToolResultBody, ToolCallID: tr.ToolResultForID})
	}
	if text != "" || len(toolCalls) > 0 || len(out) == 0 {
		out = append(out, ChatMessage{Role: string(m.Role), Content: text, ToolCalls: toolCalls})
	}
	return out
}

// toProviderTools converts the request's tool definitions to the
// provider-agnostic ToolDef shape the fallback chain expects.
func toProviderTools(in []ChatTool) []providers.ToolDef {
	if len(in) == 0 {
		return nil
	}
	out := make([]providers.ToolDef, 0, len(in))
	for _, t := range in {
		var params providers.ToolParameters
		_ = json.Unmarshal(t.Function.Parameters, &params)
		out = append(out, providers.ToolDef{
			Type: "function",
			Function: providers.ToolFunction{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// toToolDefinitions converts the request's tool definitions to the
// shape the local tool loop's schema validator and system prompt
// builder consume.
func toToolDefinitions(in []ChatTool) []toolloop.ToolDefinition {
	if len(in) == 0 {
		return nil
	}
	out := make([]toolloop.ToolDefinition, 0, len(in))
	for _, t := range in {
		params := t.Function.Parameters
		if len(params) == 0 {
			params = json.RawMessage(`{"type":"object"}`)
		}
		out = append(out, toolloop.ToolDefinition{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  params,
		})
	}
	return out
}

// finishReason implements spec.md §4.4 step 7: "tool_calls" iff the
// message carries at least one ToolUse block, else "stop".
func finishReason(m messages.Message) string {
	if m.HasToolUse() {
		return "tool_calls"
	}
	return "stop"
}
