// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package inference

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// LlamaServerHandle implements Handle by proxying llama.cpp's
// llama-server binary over HTTP, matching the Handle doc's own
// suggestion ("backends that proxy a local inference server... llama.cpp's
// llama-server"). The daemon owns exactly one of these at a time — the
// engine above it already serializes every call through a single lock,
// so this type does no locking of its own.
type LlamaServerHandle struct {
	cmd        *exec.Cmd
	baseURL    string
	httpClient *http.Client
}

// StartLlamaServer launches llama-server against modelPath on port and
// blocks (up to readyTimeout) until its /health endpoint responds, the
// same "spawn, then poll health" shape internal/client uses for the
// daemon itself.
func StartLlamaServer(ctx context.Context, binaryPath, modelPath string, port int, readyTimeout time.Duration) (*LlamaServerHandle, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	cmd := exec.CommandContext(context.Background(), binaryPath,
		"--model", modelPath,
		"--host", "127.0.0.1",
		"--port", fmt.Sprintf("%d", port),
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("inference: starting llama-server: %w", err)
	}

	h := &LlamaServerHandle{
		cmd:        cmd,
		baseURL:    "http://" + addr,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}

	deadline := time.Now().Add(readyTimeout)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/health", nil)
		if resp, err := h.httpClient.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return h, nil
			}
		}
		select {
		case <-ctx.Done():
			_ = cmd.Process.Kill()
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	_ = cmd.Process.Kill()
	return nil, fmt.Errorf("inference: llama-server did not become healthy within %s", readyTimeout)
}

type llamaCompletionRequest struct {
	Prompt      string   `json:"prompt"`
	Temperature float32  `json:"temperature,omitempty"`
	TopP        float32  `json:"top_p,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
	RepeatPenalty float32 `json:"repeat_penalty,omitempty"`
	NPredict    int      `json:"n_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
	Stream      bool     `json:"stream,omitempty"`
}

type llamaCompletionResponse struct {
	Content string `json:"content"`
	Stop    bool   `json:"stop"`
}

// Generate implements Handle.
func (h *LlamaServerHandle) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	body, err := json.Marshal(toLlamaRequest(prompt, params, false))
	if err != nil {
		return "", fmt.Errorf("inference: encoding completion request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("inference: building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference: completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("inference: llama-server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out llamaCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("inference: decoding completion response: %w", err)
	}
	return out.Content, nil
}

// GenerateStream implements Handle, reading llama-server's SSE stream
// one "data: {...}" line at a time, the same scan-and-flush shape
// AnthropicProvider.SendMessageStream uses for its own SSE.
func (h *LlamaServerHandle) GenerateStream(ctx context.Context, prompt string, params GenerateParams) (<-chan TokenDelta, error) {
	body, err := json.Marshal(toLlamaRequest(prompt, params, true))
	if err != nil {
		return nil, fmt.Errorf("inference: encoding completion request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("inference: building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference: completion stream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("inference: llama-server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	out := make(chan TokenDelta)
	go func() {
		defer close(out)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var chunk llamaCompletionResponse
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
				continue
			}
			select {
			case out <- TokenDelta{Text: chunk.Content, Done: chunk.Stop}:
			case <-ctx.Done():
				return
			}
			if chunk.Stop {
				return
			}
		}
	}()
	return out, nil
}

// ReloadLoRA hot-swaps the adapter at path via llama-server's
// /lora-adapters endpoint, without restarting the base model process.
func (h *LlamaServerHandle) ReloadLoRA(path string) error {
	body, err := json.Marshal([]map[string]any{{"id": 0, "scale": 1.0}})
	if err != nil {
		return fmt.Errorf("inference: encoding lora-adapters request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, h.baseURL+"/lora-adapters", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("inference: building lora-adapters request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inference: lora-adapters request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("inference: lora-adapters returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// MemoryBytes is best-effort: llama-server doesn't expose RSS over its
// HTTP API, so this always reports 0 rather than shelling out to /proc.
// The training coordinator and router never consult it; it exists only
// to satisfy Handle.
func (h *LlamaServerHandle) MemoryBytes() uint64 { return 0 }

// Close terminates the llama-server subprocess.
func (h *LlamaServerHandle) Close() error {
	if h.cmd == nil || h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}

func toLlamaRequest(prompt string, params GenerateParams, stream bool) llamaCompletionRequest {
	return llamaCompletionRequest{
		Prompt:        prompt,
		Temperature:   params.Temperature,
		TopP:          params.TopP,
		TopK:          params.TopK,
		RepeatPenalty: params.RepetitionPenalty,
		NPredict:      params.MaxTokens,
		Stop:          params.Stop,
		Stream:        stream,
	}
}
