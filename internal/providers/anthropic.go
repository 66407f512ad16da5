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
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AleutianAI/shammah/internal/messages"
)

const anthropicAPIVersion = "2023-06-01"

// AnthropicProvider wraps Claude's native messages API.
//
// Thread Safety: safe for concurrent use; it carries no mutable state
// beyond the http.Client's own connection pool.
type AnthropicProvider struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewAnthropicProvider constructs a provider from a TeacherEntry's
// fields. baseURL defaults to the production API if empty.
func NewAnthropicProvider(apiKey, model, baseURL string) *AnthropicProvider {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1/messages"
	}
	return &AnthropicProvider{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
	}
}

func (a *AnthropicProvider) Name() string            { return "anthropic" }
func (a *AnthropicProvider) DefaultModel() string    { return a.model }
func (a *AnthropicProvider) SupportsStreaming() bool { return true }
func (a *AnthropicProvider) SupportsTools() bool     { return true }

type anthropicWireMessage struct {
	Role    string        `json:"role"`
	Content []interface{} `json:"content"`
}

type anthropicSystemBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicToolUseBlock struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type anthropicToolResultBlock struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

type anthropicTextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicToolDef struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"input_schema"`
}

type anthropicRequest struct {
	Model       string                  `json:"model"`
	Messages    []anthropicWireMessage  `json:"messages"`
	System      []anthropicSystemBlock  `json:"system,omitempty"`
	MaxTokens   int                     `json:"max_tokens"`
	Tools       []anthropicToolDef      `json:"tools,omitempty"`
	Temperature *float32                `json:"temperature,omitempty"`
	TopP        *float32                `json:"top_p,omitempty"`
	TopK        *int                    `json:"top_k,omitempty"`
	StopSeqs    []string                `json:"stop_sequences,omitempty"`
	Stream      bool                    `json:"stream,omitempty"`
}

type anthropicResponse struct {
	Content []json.RawMessage `json:"content"`
	Error   *anthropicError   `json:"error,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type anthropicContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// toWireMessages converts the internal message list to Anthropic's
// content-block wire shape, which maps onto messages.ContentBlock
// almost one-to-one since the internal representation was patterned
// after it.
func (a *AnthropicProvider) toWireMessages(msgs []messages.Message) []anthropicWireMessage {
	out := make([]anthropicWireMessage, 0, len(msgs))
	for _, m := range msgs {
		role := string(m.Role)
		if m.Role == messages.RoleTool {
			// The internal wire never uses RoleTool directly (daemon
			// translates OpenAI's tool role to a user ToolResult block
			// on ingress), but guard it anyway for direct callers.
			role = "user"
		}
		var blocks []interface{}
		for _, b := range m.Content {
			switch b.Kind {
			case messages.BlockText:
				blocks = append(blocks, anthropicTextBlock{Type: "text", Text: b.Text})
			case messages.BlockToolUse:
				input := b.ToolArgs
				if len(input) == 0 {
					input = json.RawMessage(`{}`)
				}
				blocks = append(blocks, anthropicToolUseBlock{
					Type: "tool_use", ID: b.ToolUseID, Name: b.ToolName, Input: input,
				})
			case messages.BlockToolResult:
				blocks = append(blocks, anthropicToolResultBlock{
					Type: "tool_result", ToolUseID: b.ToolResultForID,
					Content: b.ToolResultBody, IsError: b.ToolResultError,
				})
			}
		}
		out = append(out, anthropicWireMessage{Role: role, Content: blocks})
	}
	return out
}

func (a *AnthropicProvider) buildRequest(req Request, stream bool) anthropicRequest {
	system, rest := splitSystem(req.Messages)

	var systemBlocks []anthropicSystemBlock
	if system != "" {
		systemBlocks = append(systemBlocks, anthropicSystemBlock{Type: "text", Text: system})
	}

	var tools []anthropicToolDef
	for _, td := range req.Tools {
		tools = append(tools, anthropicToolDef{
			Name: td.Function.Name, Description: td.Function.Description, InputSchema: td.Function.Parameters,
		})
	}

	wire := anthropicRequest{
		// The model-ID substitution contract: a.model always wins, the
		// caller's req.Model is never sent.
		Model:       a.model,
		Messages:    a.toWireMessages(rest),
		System:      systemBlocks,
		MaxTokens:   4096,
		Tools:       tools,
		Temperature: req.Params.Temperature,
		TopP:        req.Params.TopP,
		TopK:        req.Params.TopK,
		StopSeqs:    req.Params.Stop,
		Stream:      stream,
	}
	if req.Params.MaxTokens != nil {
		wire.MaxTokens = *req.Params.MaxTokens
	}
	return wire
}

func (a *AnthropicProvider) SendMessage(ctx context.Context, req Request) (*Response, error) {
	wire := a.buildRequest(req, false)

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: creating HTTP request: %w", err)
	}
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic: HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("anthropic: reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic: API returned status %d: %s", resp.StatusCode, SafeLogString(string(respBody)))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("anthropic: parsing response JSON: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("anthropic: API error: %s - %s", apiResp.Error.Type, SafeLogString(apiResp.Error.Message))
	}

	out := &Response{}
	var textParts []string
	for _, raw := range apiResp.Content {
		var block anthropicContentBlock
		if err := json.Unmarshal(raw, &block); err != nil {
			slog.Warn("anthropic: failed to parse content block", "error", err)
			continue
		}
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "tool_use":
			input := block.Input
			if len(input) == 0 {
				input = json.RawMessage(`{}`)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCallResponse{ID: block.ID, Name: block.Name, Arguments: input})
		}
	}
	out.Content = strings.Join(textParts, "")
	if len(out.ToolCalls) > 0 {
		out.StopReason = "tool_use"
	} else {
		out.StopReason = "end"
	}
	return out, nil
}

// SendMessageStream reads Anthropic's SSE stream and emits one
// StreamEvent per text or thinking delta.
func (a *AnthropicProvider) SendMessageStream(ctx context.Context, req Request, cb StreamCallback) error {
	wire := a.buildRequest(req, true)

	body, err := json.Marshal(wire)
	if err != nil {
		return newOpenFailure(fmt.Errorf("anthropic: marshaling stream request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		return newOpenFailure(fmt.Errorf("anthropic: creating stream HTTP request: %w", err))
	}
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("accept", "text/event-stream")

	streamClient := &http.Client{Timeout: 5 * time.Minute}
	resp, err := streamClient.Do(httpReq)
	if err != nil {
		return newOpenFailure(fmt.Errorf("anthropic: stream HTTP request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return newOpenFailure(fmt.Errorf("anthropic: stream API returned status %d: %s", resp.StatusCode, SafeLogString(string(respBody))))
	}

	// Past this point the stream is open; any failure from here on is
	// mid-stream and must not trigger a chain retry.
	return processAnthropicSSE(ctx, resp.Body, cb)
}

type anthropicDelta struct {
	Type  string `json:"type"`
	Delta struct {
		Type     string `json:"type"`
		Text     string `json:"text,omitempty"`
		Thinking string `json:"thinking,omitempty"`
	} `json:"delta"`
}

func processAnthropicSSE(ctx context.Context, body io.Reader, cb StreamCallback) error {
	scanner := bufio.NewScanner(body)
	var eventType string
	var data strings.Builder

	flush := func() error {
		defer func() { data.Reset(); eventType = "" }()
		if data.Len() == 0 || eventType != "content_block_delta" {
			return nil
		}
		var delta anthropicDelta
		if err := json.Unmarshal([]byte(data.String()), &delta); err != nil {
			return nil
		}
		switch delta.Delta.Type {
		case "text_delta":
			if delta.Delta.Text != "" {
				return cb(StreamEvent{Type: StreamEventToken, Content: delta.Delta.Text})
			}
		case "thinking_delta":
			if delta.Delta.Thinking != "" {
				return cb(StreamEvent{Type: StreamEventThinking, Content: delta.Delta.Thinking})
			}
		}
		return nil
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			_ = cb(StreamEvent{Type: StreamEventError, Error: "stream cancelled"})
			return ctx.Err()
		default:
		}

		line := scanner.Text()
		if line == "" {
			if err := flush(); err != nil {
				return fmt.Errorf("anthropic: stream callback error: %w", err)
			}
			continue
		}
		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data.WriteString(strings.TrimPrefix(line, "data: "))
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cb(StreamEvent{Type: StreamEventError, Error: err.Error()})
		return fmt.Errorf("anthropic: stream read error: %w", err)
	}
	return nil
}
