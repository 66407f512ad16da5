// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package providers wraps the wire formats of teacher LLM backends
// (Anthropic, OpenAI-compatible, Gemini) behind one Provider interface,
// and chains them with ordered fallback.
package providers

import (
	"context"
	"encoding/json"

	"github.com/AleutianAI/shammah/internal/messages"
)

// GenerationParams carries the optional sampling knobs a caller may
// request. A nil pointer means "let the provider use its own default".
type GenerationParams struct {
	Temperature *float32
	TopP        *float32
	TopK        *int
	MaxTokens   *int
	Stop        []string
}

// ToolDef is the provider-agnostic tool definition, following the
// OpenAI function-calling schema shape that every provider's wire
// format is translated to or from.
type ToolDef struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  ToolParameters `json:"parameters"`
}

type ToolParameters struct {
	Type       string                  `json:"type"`
	Properties map[string]ToolParamDef `json:"properties,omitempty"`
	Required   []string                `json:"required,omitempty"`
}

type ToolParamDef struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// ToolCallResponse is a provider-agnostic tool call surfaced in a
// Response, regardless of whether the wire format carried it in an
// Anthropic tool_use block, an OpenAI tool_calls array, or a Gemini
// functionCall part (which carries no ID — providers synthesize one).
type ToolCallResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Request is a provider-agnostic chat request. Model is advisory: per
// the model-ID substitution contract, every provider implementation
// ignores it and sends its own configured model in the outbound wire
// request.
type Request struct {
	Model    string
	Messages []messages.Message
	Tools    []ToolDef
	Params   GenerationParams
}

// Response is a provider-agnostic chat result.
type Response struct {
	Content    string
	ToolCalls  []ToolCallResponse
	StopReason string // "end" or "tool_use"
}

// StreamEventType discriminates StreamEvent.
type StreamEventType string

const (
	StreamEventToken    StreamEventType = "token"
	StreamEventThinking StreamEventType = "thinking"
	StreamEventError    StreamEventType = "error"
)

// StreamEvent is one chunk of a streaming response.
type StreamEvent struct {
	Type    StreamEventType
	Content string
	Error   string
}

// StreamCallback is invoked once per StreamEvent. Returning a non-nil
// error aborts the stream.
type StreamCallback func(StreamEvent) error

// openFailure marks a streaming error that happened before any chunk
// reached the caller's callback — safe for the fallback chain to retry
// against the next provider. An error NOT wrapped in openFailure is a
// mid-stream failure and must never trigger a retry, since the caller
// may already have received partial output.
type openFailure struct{ err error }

func (e *openFailure) Error() string { return e.err.Error() }
func (e *openFailure) Unwrap() error { return e.err }

func newOpenFailure(err error) error {
	if err == nil {
		return nil
	}
	return &openFailure{err: err}
}

// Provider is the contract every teacher backend implements.
type Provider interface {
	// Name identifies the provider for logging and the /v1/models surface.
	Name() string
	// DefaultModel is the model this provider sends on the wire,
	// regardless of what Request.Model asks for.
	DefaultModel() string
	SupportsStreaming() bool
	SupportsTools() bool

	SendMessage(ctx context.Context, req Request) (*Response, error)
	// SendMessageStream returns an error immediately if the provider
	// does not support streaming; otherwise it blocks, invoking cb for
	// each event, until the stream ends or cb returns an error.
	SendMessageStream(ctx context.Context, req Request, cb StreamCallback) error
}

// splitSystem pulls the (at most one, by convention the first) system
// message out of a message list and returns it alongside the rest,
// mirroring every teacher wire format's separate system-prompt slot.
func splitSystem(msgs []messages.Message) (system string, rest []messages.Message) {
	for _, m := range msgs {
		if m.Role == messages.RoleSystem && system == "" {
			system = m.Text()
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
