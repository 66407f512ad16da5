// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package toolloop

import (
	"fmt"
	"strings"

	"github.com/AleutianAI/shammah/internal/messages"
)

// BuildSystemPrompt enumerates the available tools, their parameter
// schemas, and an illustrative <tool_use> example, per spec.md §4.5
// step 1. Returns "" when there are no tools, so callers can
// unconditionally concatenate it onto their own system text.
func BuildSystemPrompt(tools []ToolDefinition) string {
	if len(tools) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("You have access to the following tools. To call one, emit exactly:\n")
	b.WriteString("<tool_use><name>TOOL_NAME</name><parameters>{...JSON...}</parameters></tool_use>\n\n")
	for _, t := range tools {
		fmt.Fprintf(&b, "- %s: %s\n  parameters: %s\n", t.Name, t.Description, string(t.Parameters))
	}
	b.WriteString("\nExample:\n<tool_use><name>")
	b.WriteString(tools[0].Name)
	b.WriteString("</name><parameters>{\"example\":\"value\"}</parameters></tool_use>\n")
	b.WriteString("If no tool is needed, answer directly with no <tool_use> tags.")
	return b.String()
}

// serializeHistory renders the last limit messages of history into a
// single text block the adapter's single-turn FormatChatPrompt can
// carry as the "user" half of the template. Each message is prefixed
// with its role; tool_use/tool_result blocks render in the same tagged
// shape the model is asked to produce, so a multi-turn transcript
// round-trips through the same syntax on both sides.
func serializeHistory(history []messages.Message, limit int) string {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	start := 0
	if len(history) > limit {
		start = len(history) - limit
	}
	var b strings.Builder
	for _, m := range history[start:] {
		b.WriteString(renderMessage(m))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func renderMessage(m messages.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", m.Role)
	for _, block := range m.Content {
		switch block.Kind {
		case messages.BlockText:
			b.WriteString(" ")
			b.WriteString(block.Text)
		case messages.BlockToolUse:
			fmt.Fprintf(&b, " <tool_use><name>%s</name><parameters>%s</parameters></tool_use>",
				block.ToolName, string(block.ToolArgs))
		case messages.BlockToolResult:
			fmt.Fprintf(&b, " <tool_result error=%t>%s</tool_result>", block.ToolResultError, block.ToolResultBody)
		}
	}
	return b.String()
}
