// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package messages defines the wire-agnostic conversation model shared by
// the router, the provider chain, and the daemon's OpenAI-shaped HTTP
// surface. Every other subsystem converts into and out of this shape at
// its boundary rather than carrying OpenAI or Anthropic types internally.
package messages

import "encoding/json"

// Role identifies who produced a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// BlockKind discriminates the variant payload carried by a ContentBlock.
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
)

// ContentBlock is a sum type over the three content variants a message can
// carry. Exactly one of the payload fields is meaningful for a given Kind;
// the others are zero. This mirrors the Anthropic content-block wire shape
// that the internal representation is patterned after (see providers.AnthropicProvider).
type ContentBlock struct {
	Kind BlockKind `json:"kind"`

	// Text is set when Kind == BlockText.
	Text string `json:"text,omitempty"`

	// ToolUse fields are set when Kind == BlockToolUse.
	ToolUseID   string          `json:"tool_use_id,omitempty"`
	ToolName    string          `json:"tool_name,omitempty"`
	ToolArgs    json.RawMessage `json:"tool_args,omitempty"`

	// ToolResult fields are set when Kind == BlockToolResult.
	ToolResultForID string `json:"tool_result_for_id,omitempty"`
	ToolResultBody  string `json:"tool_result_body,omitempty"`
	ToolResultError bool   `json:"tool_result_error,omitempty"`
}

// Text returns a text block.
func Text(s string) ContentBlock { return ContentBlock{Kind: BlockText, Text: s} }

// ToolUse returns a tool-invocation block.
func ToolUse(id, name string, args json.RawMessage) ContentBlock {
	return ContentBlock{Kind: BlockToolUse, ToolUseID: id, ToolName: name, ToolArgs: args}
}

// ToolResult returns a tool-result block.
func ToolResult(forID, body string, isError bool) ContentBlock {
	return ContentBlock{Kind: BlockToolResult, ToolResultForID: forID, ToolResultBody: body, ToolResultError: isError}
}

// Message is one turn in a conversation.
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Text concatenates every text block in the message, in order. Messages
// that only carry tool-use/tool-result blocks return "".
func (m Message) Text() string {
	var out string
	for _, b := range m.Content {
		if b.Kind == BlockText {
			out += b.Text
		}
	}
	return out
}

// HasToolUse reports whether the message carries at least one tool
// invocation block — used by the daemon to pick finish_reason.
func (m Message) HasToolUse() bool {
	for _, b := range m.Content {
		if b.Kind == BlockToolUse {
			return true
		}
	}
	return false
}

// Query is a user request: the new text plus the prior turns that give it
// context. Query.Text is the last user turn's text, extracted by the
// daemon before handing the query to the router.
type Query struct {
	Text    string
	History []Message
}
