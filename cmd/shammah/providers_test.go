// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"testing"

	"github.com/AleutianAI/shammah/internal/config"
	"github.com/AleutianAI/shammah/internal/providers"
)

func TestBuildProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		wantType any
		wantErr  bool
	}{
		{"anthropic", "anthropic", &providers.AnthropicProvider{}, false},
		{"gemini", "gemini", &providers.GeminiProvider{}, false},
		{"openai alias", "openai", &providers.OpenAICompatProvider{}, false},
		{"openai-compat", "openai-compat", &providers.OpenAICompatProvider{}, false},
		{"unknown", "ollama", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := config.TeacherEntry{Name: "t", Provider: tt.provider, Model: "m"}
			p, err := buildProvider(entry)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error for an unknown provider, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("buildProvider: %v", err)
			}
			if p == nil {
				t.Fatal("buildProvider returned a nil Provider with a nil error")
			}
		})
	}
}

func TestBuildProviders_PreservesOrderAndStopsOnFirstError(t *testing.T) {
	ok, err := buildProviders([]config.TeacherEntry{
		{Name: "claude", Provider: "anthropic", Model: "claude-sonnet-4-5"},
		{Name: "gpt", Provider: "openai-compat", Model: "gpt-4o"},
	})
	if err != nil {
		t.Fatalf("buildProviders: %v", err)
	}
	if len(ok) != 2 {
		t.Fatalf("len(providers) = %d, want 2", len(ok))
	}

	_, err = buildProviders([]config.TeacherEntry{
		{Name: "claude", Provider: "anthropic", Model: "claude-sonnet-4-5"},
		{Name: "bogus", Provider: "does-not-exist", Model: "x"},
	})
	if err == nil {
		t.Fatal("expected an error when one teacher entry names an unknown provider")
	}
}
