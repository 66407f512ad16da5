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
	"context"
	"fmt"

	"github.com/AleutianAI/shammah/internal/inference"
	"github.com/AleutianAI/shammah/internal/messages"
)

// Executor runs one tool call against whatever backs it; the actual
// tool implementations are out of scope here (spec.md §4.5 step 4).
type Executor interface {
	Execute(ctx context.Context, call ToolCall) (body string, isError bool, err error)
}

// Loop drives the local engine through the tagged tool-use protocol.
type Loop struct {
	Engine       *inference.Engine
	Executor     Executor
	Tools        []ToolDefinition
	Validator    *SchemaValidator // optional; nil skips schema validation
	HistoryLimit int              // 0 uses defaultHistoryLimit
}

// Result is what Run hands back: the final answer plus whatever
// intervening tool-use/tool-result turns it generated along the way,
// so a caller that persists conversation history (the daemon's session
// map) can record the complete exchange rather than just the answer.
type Result struct {
	Final     messages.Message
	ToolTurns []messages.Message
}

// Run executes the loop described in spec.md §4.5 and returns the
// final assistant message plus any tool-use turns that preceded it.
func (l *Loop) Run(ctx context.Context, systemPrompt string, history []messages.Message) (Result, error) {
	sys := BuildSystemPrompt(l.Tools)
	if systemPrompt != "" {
		if sys != "" {
			sys += "\n\n"
		}
		sys += systemPrompt
	}

	convo := append([]messages.Message(nil), history...)
	var toolTurns []messages.Message
	cfg := l.Engine.Adapter().GenerationConfig()

	for turn := 0; turn < maxTurns; turn++ {
		prompt := serializeHistory(convo, l.HistoryLimit)

		raw, err := l.Engine.Generate(ctx, sys, prompt, cfg)
		if err != nil {
			return Result{}, fmt.Errorf("toolloop: generate: %w", err)
		}

		calls, err := ParseToolCalls(raw)
		if err != nil {
			return Result{}, err
		}
		if len(calls) == 0 {
			final := messages.Message{
				Role:    messages.RoleAssistant,
				Content: []messages.ContentBlock{messages.Text(StripToolUse(raw))},
			}
			return Result{Final: final, ToolTurns: toolTurns}, nil
		}

		toolUse, toolResult, err := l.executeTurn(ctx, turn, calls)
		if err != nil {
			return Result{}, err
		}
		assistantTurn := messages.Message{Role: messages.RoleAssistant, Content: toolUse}
		resultTurn := messages.Message{Role: messages.RoleUser, Content: toolResult}
		convo = append(convo, assistantTurn, resultTurn)
		toolTurns = append(toolTurns, assistantTurn, resultTurn)
	}
	return Result{}, ErrToolLoopExhausted
}

func (l *Loop) executeTurn(ctx context.Context, turn int, calls []ToolCall) ([]messages.ContentBlock, []messages.ContentBlock, error) {
	toolUse := make([]messages.ContentBlock, 0, len(calls))
	toolResult := make([]messages.ContentBlock, 0, len(calls))
	for i, call := range calls {
		id := fmt.Sprintf("call_%d_%d", turn, i)
		toolUse = append(toolUse, messages.ToolUse(id, call.Name, call.Parameters))

		if l.Validator != nil {
			if err := l.Validator.Validate(call); err != nil {
				toolResult = append(toolResult, messages.ToolResult(id, err.Error(), true))
				continue
			}
		}

		body, isError, err := l.Executor.Execute(ctx, call)
		if err != nil {
			return nil, nil, fmt.Errorf("toolloop: execute %q: %w", call.Name, err)
		}
		toolResult = append(toolResult, messages.ToolResult(id, body, isError))
	}
	return toolUse, toolResult, nil
}
