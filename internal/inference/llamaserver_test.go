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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func fakeLlamaServerHandle(server *httptest.Server) *LlamaServerHandle {
	return &LlamaServerHandle{baseURL: server.URL, httpClient: server.Client()}
}

func TestLlamaServerHandle_Generate_ReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llamaCompletionRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Stream {
			t.Error("Generate sent stream:true, want false")
		}
		json.NewEncoder(w).Encode(llamaCompletionResponse{Content: "hello there", Stop: true})
	}))
	defer server.Close()

	h := fakeLlamaServerHandle(server)
	out, err := h.Generate(context.Background(), "hi", GenerateParams{MaxTokens: 32})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "hello there" {
		t.Errorf("out = %q, want %q", out, "hello there")
	}
}

func TestLlamaServerHandle_Generate_NonOKStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	h := fakeLlamaServerHandle(server)
	if _, err := h.Generate(context.Background(), "hi", GenerateParams{}); err == nil {
		t.Fatal("Generate: want error on non-200 status")
	}
}

func TestLlamaServerHandle_GenerateStream_EmitsDeltasThenDone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, _ := w.(http.Flusher)
		chunks := []llamaCompletionResponse{{Content: "hel"}, {Content: "lo"}, {Content: "", Stop: true}}
		for _, c := range chunks {
			b, _ := json.Marshal(c)
			fmt.Fprintf(w, "data: %s\n", b)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}))
	defer server.Close()

	h := fakeLlamaServerHandle(server)
	deltas, err := h.GenerateStream(context.Background(), "hi", GenerateParams{})
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}

	var got []TokenDelta
	for d := range deltas {
		got = append(got, d)
	}
	if len(got) != 3 {
		t.Fatalf("got %d deltas, want 3: %+v", len(got), got)
	}
	if got[0].Text != "hel" || got[1].Text != "lo" {
		t.Errorf("deltas = %+v, want text hel, lo", got)
	}
	if !got[2].Done {
		t.Errorf("final delta Done = false, want true")
	}
}

func TestLlamaServerHandle_ReloadLoRA_PostsToLoraAdaptersEndpoint(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h := fakeLlamaServerHandle(server)
	if err := h.ReloadLoRA("/tmp/adapter.gguf"); err != nil {
		t.Fatalf("ReloadLoRA: %v", err)
	}
	if gotPath != "/lora-adapters" {
		t.Errorf("path = %q, want /lora-adapters", gotPath)
	}
}

func TestLlamaServerHandle_Close_NilProcessIsNoop(t *testing.T) {
	h := &LlamaServerHandle{}
	if err := h.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
