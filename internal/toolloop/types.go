// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package toolloop drives the local model through the tagged
// <tool_use> protocol described in spec.md §4.5: build a system prompt
// listing the available tools, generate, parse any tool invocations
// out of the raw text, execute them, and feed the results back for up
// to five turns before giving up.
package toolloop

import (
	"encoding/json"
	"errors"
)

// ToolDefinition describes one callable tool: its name, a
// human-readable description for the prompt, and a JSON Schema
// describing its parameters. Mirrors the provider-agnostic ToolDef
// shape the fallback chain already uses for teacher-bound requests,
// so the daemon can build one tool list and hand it to either path.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall is one parsed <tool_use> invocation.
type ToolCall struct {
	Name       string
	Parameters json.RawMessage
}

// ErrToolLoopExhausted is returned when the loop reaches maxTurns
// without the model producing a final, tool-free answer.
var ErrToolLoopExhausted = errors.New("toolloop: exceeded maximum tool turns")

// ErrInvalidParameters is returned when a <parameters> block is not
// valid JSON; spec.md §4.5 says this fails the whole generation rather
// than silently skipping the call.
var ErrInvalidParameters = errors.New("toolloop: tool_use parameters block is not valid JSON")

const maxTurns = 5

// defaultHistoryLimit is the "typically 5" default from spec.md §4.5
// for how many prior messages are serialized into the prompt.
const defaultHistoryLimit = 5
