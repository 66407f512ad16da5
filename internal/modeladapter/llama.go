// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package modeladapter

import "fmt"

// llamaAdapter implements Llama 3's header-based template: each turn is
// wrapped in <|start_header_id|>role<|end_header_id|> ... <|eot_id|>.
type llamaAdapter struct{}

func (a *llamaAdapter) Family() Family { return FamilyLlama }

func (a *llamaAdapter) FormatChatPrompt(system, user string) string {
	sys := constitutionSentinel
	if system != "" {
		sys = sys + "\n" + system
	}
	return fmt.Sprintf(
		"<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\n%s<|eot_id|>"+
			"<|start_header_id|>user<|end_header_id|>\n\n%s<|eot_id|>"+
			"<|start_header_id|>assistant<|end_header_id|>\n\n",
		sys, user,
	)
}

func (a *llamaAdapter) EOSTokenID() int { return 128009 } // <|eot_id|>

func (a *llamaAdapter) BOSTokenID() (int, bool) { return 128000, true }

func (a *llamaAdapter) CleanOutput(raw string) string {
	out := stripEOSToken(raw, "<|eot_id|>")
	out = stripRoleMarkers(out,
		"<|begin_of_text|>", "<|start_header_id|>system<|end_header_id|>",
		"<|start_header_id|>user<|end_header_id|>", "<|start_header_id|>assistant<|end_header_id|>",
		"<|end_of_text|>",
	)
	out = stripPromptEcho(out, constitutionSentinel, "<|start_header_id|>user")
	return trimClean(out)
}

func (a *llamaAdapter) Markers() []string {
	return []string{
		"<|eot_id|>", "<|begin_of_text|>", "<|start_header_id|>system<|end_header_id|>",
		"<|start_header_id|>user<|end_header_id|>", "<|start_header_id|>assistant<|end_header_id|>",
		"<|end_of_text|>",
	}
}

func (a *llamaAdapter) GenerationConfig() GenerationConfig {
	return GenerationConfig{Temperature: 0.6, TopP: 0.9, TopK: 40, RepetitionPenalty: 1.1, MaxTokens: 1024}
}
