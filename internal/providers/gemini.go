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
	"strings"
	"time"

	"github.com/AleutianAI/shammah/internal/messages"
)

// GeminiProvider wraps Google's generateContent API.
type GeminiProvider struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

func NewGeminiProvider(apiKey, model, baseURL string) *GeminiProvider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &GeminiProvider{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
	}
}

func (g *GeminiProvider) Name() string            { return "gemini" }
func (g *GeminiProvider) DefaultModel() string    { return g.model }
func (g *GeminiProvider) SupportsStreaming() bool { return false }
func (g *GeminiProvider) SupportsTools() bool     { return true }

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string              `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResp `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

type geminiFunctionResp struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

type geminiFunctionDeclaration struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"`
}

type geminiToolDeclaration struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopP            *float32 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	Tools             []geminiToolDeclaration `json:"tools,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (g *GeminiProvider) genConfig(p GenerationParams) *geminiGenerationConfig {
	cfg := &geminiGenerationConfig{
		Temperature: p.Temperature, TopP: p.TopP, TopK: p.TopK,
		MaxOutputTokens: p.MaxTokens, StopSequences: p.Stop,
	}
	if cfg.Temperature == nil && cfg.TopP == nil && cfg.TopK == nil && cfg.MaxOutputTokens == nil && len(cfg.StopSequences) == 0 {
		return nil
	}
	return cfg
}

// toWireContents converts the internal message list into Gemini's
// contents array: a ToolUse block becomes a "model"-role functionCall
// part, a ToolResult block becomes a "user"-role functionResponse part
// keyed by tool name (Gemini has no concept of a tool-call id).
func (g *GeminiProvider) toWireContents(msgs []messages.Message, toolNameByID map[string]string) []geminiContent {
	var out []geminiContent
	for _, m := range msgs {
		role := "user"
		if m.Role == messages.RoleAssistant {
			role = "model"
		}
		var parts []geminiPart
		for _, b := range m.Content {
			switch b.Kind {
			case messages.BlockText:
				if b.Text != "" {
					parts = append(parts, geminiPart{Text: b.Text})
				}
			case messages.BlockToolUse:
				var args map[string]interface{}
				if err := json.Unmarshal(b.ToolArgs, &args); err != nil {
					args = map[string]interface{}{}
				}
				toolNameByID[b.ToolUseID] = b.ToolName
				parts = append(parts, geminiPart{FunctionCall: &geminiFunctionCall{Name: b.ToolName, Args: args}})
			case messages.BlockToolResult:
				var respData map[string]interface{}
				if err := json.Unmarshal([]byte(b.ToolResultBody), &respData); err != nil {
					respData = map[string]interface{}{"result": b.ToolResultBody}
				}
				name := toolNameByID[b.ToolResultForID]
				parts = append(parts, geminiPart{FunctionResponse: &geminiFunctionResp{Name: name, Response: respData}})
			}
		}
		if len(parts) > 0 {
			out = append(out, geminiContent{Role: role, Parts: parts})
		}
	}
	return out
}

func (g *GeminiProvider) SendMessage(ctx context.Context, req Request) (*Response, error) {
	system, rest := splitSystem(req.Messages)

	wire := geminiRequest{GenerationConfig: g.genConfig(req.Params)}
	if system != "" {
		wire.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	wire.Contents = g.toWireContents(rest, make(map[string]string))

	if len(req.Tools) > 0 {
		var decls []geminiFunctionDeclaration
		for _, td := range req.Tools {
			decls = append(decls, geminiFunctionDeclaration{
				Name: td.Function.Name, Description: td.Function.Description, Parameters: td.Function.Parameters,
			})
		}
		wire.Tools = []geminiToolDeclaration{{FunctionDeclarations: decls}}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini: API returned status %d: %s", resp.StatusCode, SafeLogString(string(respBody)))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("gemini: parsing response JSON: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("gemini: API error [%d] %s: %s", apiResp.Error.Code, apiResp.Error.Status, SafeLogString(apiResp.Error.Message))
	}
	if len(apiResp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: returned no candidates")
	}

	out := &Response{}
	var textParts []string
	callIndex := 0
	for _, part := range apiResp.Candidates[0].Content.Parts {
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
		if part.FunctionCall != nil {
			argsJSON, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				argsJSON = []byte(`{}`)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCallResponse{
				ID:        fmt.Sprintf("gemini-call-%d", callIndex),
				Name:      part.FunctionCall.Name,
				Arguments: argsJSON,
			})
			callIndex++
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

func (g *GeminiProvider) SendMessageStream(ctx context.Context, req Request, cb StreamCallback) error {
	return fmt.Errorf("gemini: streaming not supported")
}
