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
	"fmt"

	"github.com/AleutianAI/shammah/internal/config"
	"github.com/AleutianAI/shammah/internal/providers"
)

// buildProvider maps one [[teachers]] entry to a concrete Provider,
// keyed by the same provider-name strings config's validator already
// restricts TeacherEntry.Provider to (anthropic, openai, gemini,
// openai-compat).
func buildProvider(t config.TeacherEntry) (providers.Provider, error) {
	switch t.Provider {
	case "anthropic":
		return providers.NewAnthropicProvider(t.APIKey, t.Model, t.BaseURL), nil
	case "gemini":
		return providers.NewGeminiProvider(t.APIKey, t.Model, t.BaseURL), nil
	case "openai", "openai-compat":
		return providers.NewOpenAICompatProvider(t.APIKey, t.Model, t.BaseURL, t.Name), nil
	default:
		return nil, fmt.Errorf("unknown teacher provider %q for %q", t.Provider, t.Name)
	}
}

// buildProviders constructs the ordered provider list backing the
// FallbackChain, in the same priority order the config's teachers
// array declares.
func buildProviders(teachers []config.TeacherEntry) ([]providers.Provider, error) {
	built := make([]providers.Provider, 0, len(teachers))
	for _, t := range teachers {
		p, err := buildProvider(t)
		if err != nil {
			return nil, err
		}
		built = append(built, p)
	}
	return built, nil
}
