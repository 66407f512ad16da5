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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AleutianAI/shammah/internal/messages"
)

// OpenAICompatProvider speaks the OpenAI chat-completions wire shape,
// which OpenAI itself, Grok, Mistral, and Groq all share — only the
// base URL and model name differ between them, so one implementation
// covers all four.
type OpenAICompatProvider struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	displayName string
}

// NewOpenAICompatProvider constructs a provider for any OpenAI-shaped
// backend. displayName is used for Name() and logging (e.g. "grok",
// "mistral") since the wire format gives no other way to tell them apart.
func NewOpenAICompatProvider(apiKey, model, baseURL, displayName string) *OpenAICompatProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1/chat/completions"
	}
	if displayName == "" {
		displayName = "openai"
	}
	return &OpenAICompatProvider{
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		apiKey:      apiKey,
		model:       model,
		baseURL:     baseURL,
		displayName: displayName,
	}
}

func (o *OpenAICompatProvider) Name() string            { return o.displayName }
func (o *OpenAICompatProvider) DefaultModel() string    { return o.model }
func (o *OpenAICompatProvider) SupportsStreaming() bool { return false }
func (o *OpenAICompatProvider) SupportsTools() bool     { return true }

type openaiWireMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openaiToolCall struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Function openaiCallFunctionBody `json:"function"`
}

type openaiCallFunctionBody struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openaiTool struct {
	Type     string         `json:"type"`
	Function openaiFunction `json:"function"`
}

type openaiFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"`
}

type openaiRequest struct {
	Model               string              `json:"model"`
	Messages            []openaiWireMessage `json:"messages"`
	Temperature         *float32            `json:"temperature,omitempty"`
	MaxCompletionTokens *int                `json:"max_completion_tokens,omitempty"`
	TopP                *float32            `json:"top_p,omitempty"`
	Stop                []string            `json:"stop,omitempty"`
	Tools               []openaiTool        `json:"tools,omitempty"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Error   *openaiError   `json:"error,omitempty"`
}

type openaiChoice struct {
	Message      openaiWireMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type openaiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// toWireMessages flattens the internal content-block representation to
// OpenAI's string-content + separate tool_calls shape: a ToolUse block
// becomes a tool_calls entry on an assistant message, a ToolResult
// block becomes a "tool" role message carrying tool_call_id.
func (o *OpenAICompatProvider) toWireMessages(msgs []messages.Message) []openaiWireMessage {
	out := make([]openaiWireMessage, 0, len(msgs))
	for _, m := range msgs {
		var toolResults []messages.ContentBlock
		var toolUses []messages.ContentBlock
		var text string
		for _, b := range m.Content {
			switch b.Kind {
			case messages.BlockText:
				text += b.Text
			case messages.BlockToolUse:
				toolUses = append(toolUses, b)
			case messages.BlockToolResult:
				toolResults = append(toolResults, b)
			}
		}
		for _, tr := range toolResults {
			out = append(out, openaiWireMessage{Role: "tool", Content: tr.ToolResultBody, ToolCallID: tr.ToolResultForID})
		}
		if text != "" || len(toolUses) > 0 {
			wm := openaiWireMessage{Role: string(m.Role), Content: text}
			for _, tu := range toolUses {
				args := tu.ToolArgs
				if len(args) == 0 {
					args = json.RawMessage(`{}`)
				}
				wm.ToolCalls = append(wm.ToolCalls, openaiToolCall{
					ID: tu.ToolUseID, Type: "function",
					Function: openaiCallFunctionBody{Name: tu.ToolName, Arguments: string(args)},
				})
			}
			out = append(out, wm)
		}
	}
	return out
}

func (o *OpenAICompatProvider) SendMessage(ctx context.Context, req Request) (*Response, error) {
	system, rest := splitSystem(req.Messages)
	wireMsgs := o.toWireMessages(rest)
	if system != "" {
		wireMsgs = append([]openaiWireMessage{{Role: "system", Content: system}}, wireMsgs...)
	}

	var tools []openaiTool
	for _, td := range req.Tools {
		tools = append(tools, openaiTool{
			Type: "function",
			Function: openaiFunction{
				Name: td.Function.Name, Description: td.Function.Description, Parameters: td.Function.Parameters,
			},
		})
	}

	wire := openaiRequest{
		Model:               o.model,
		Messages:            wireMsgs,
		Temperature:         req.Params.Temperature,
		MaxCompletionTokens: req.Params.MaxTokens,
		TopP:                req.Params.TopP,
		Stop:                req.Params.Stop,
		Tools:               tools,
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling request: %w", o.displayName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: creating HTTP request: %w", o.displayName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: HTTP request failed: %w", o.displayName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response body: %w", o.displayName, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: API returned status %d: %s", o.displayName, resp.StatusCode, SafeLogString(string(respBody)))
	}

	var apiResp openaiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("%s: parsing response JSON: %w", o.displayName, err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("%s: API error: %s - %s", o.displayName, apiResp.Error.Type, SafeLogString(apiResp.Error.Message))
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("%s: returned no choices", o.displayName)
	}

	choice := apiResp.Choices[0]
	out := &Response{Content: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCallResponse{
			ID: tc.ID, Name: tc.Function.Name, Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	if len(out.ToolCalls) > 0 {
		out.StopReason = "tool_use"
	} else {
		out.StopReason = "end"
	}
	return out, nil
}

// SendMessageStream is unimplemented: none of OpenAI, Grok, Mistral, or
// Groq need streaming for this daemon's internal-only teacher path, and
// adding SSE parsing for a wire shape that's already handled by
// AnthropicProvider would duplicate logic nothing exercises.
func (o *OpenAICompatProvider) SendMessageStream(ctx context.Context, req Request, cb StreamCallback) error {
	return fmt.Errorf("%s: streaming not supported", o.displayName)
}
