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
	"strings"
	"testing"
)

func TestSafeLogString(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"anthropic key", "error: sk-ant-REDACTED returned 401", "[REDACTED:anthropic_key]"},
		{"openai key", "key is sk-abcdefghijklmnopqrstuvwx and broken", "[REDACTED:openai_key]"},
		{"gemini key", "url has key=AIzaSyAbcDefGhiJklMnoPqrStUvWxYz01234567 embedded", "[REDACTED:gemini_key]"},
		{"bearer token", "Authorization: Bearer abcdef0123456789", "[REDACTED:bearer_token]"},
		{"no secret", "normal log message", "normal log message"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SafeLogString(tc.input)
			if !strings.Contains(got, tc.want) {
				t.Errorf("SafeLogString(%q) = %q, want to contain %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSafeLogString_AnthropicBeforeOpenAI(t *testing.T) {
	// "sk-ant-..." must match the Anthropic pattern, not the more
	// general "sk-" OpenAI pattern, since both start with "sk-".
	got := SafeLogString("sk-ant-REDACTED")
	if strings.Contains(got, "openai_key") {
		t.Errorf("anthropic key was misclassified as openai: %q", got)
	}
}

func TestSafeLogString_Empty(t *testing.T) {
	if SafeLogString("") != "" {
		t.Error("empty string should round-trip unchanged")
	}
}
