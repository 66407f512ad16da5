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

// chatMLAdapter implements the ChatML template shared by Qwen and Phi.
// The two families differ only in their end-of-turn token and sampling
// defaults, so one struct parameterized by family covers both.
type chatMLAdapter struct {
	family   Family
	eosID    int
	eosToken string
}

func (a *chatMLAdapter) Family() Family { return a.family }

func (a *chatMLAdapter) FormatChatPrompt(system, user string) string {
	sys := constitutionSentinel
	if system != "" {
		sys = sys + "\n" + system
	}
	return fmt.Sprintf(
		"<|im_start|>system\n%s<|im_end|>\n<|im_start|>user\n%s<|im_end|>\n<|im_start|>assistant\n",
		sys, user,
	)
}

func (a *chatMLAdapter) EOSTokenID() int { return a.eosID }

func (a *chatMLAdapter) BOSTokenID() (int, bool) { return 0, false }

func (a *chatMLAdapter) CleanOutput(raw string) string {
	out := stripEOSToken(raw, a.eosToken)
	out = stripRoleMarkers(out, "<|im_start|>system", "<|im_start|>user", "<|im_start|>assistant", "<|im_end|>")
	out = stripPromptEcho(out, constitutionSentinel, "<|im_start|>user")
	return trimClean(out)
}

func (a *chatMLAdapter) Markers() []string {
	return []string{a.eosToken, "<|im_start|>system", "<|im_start|>user", "<|im_start|>assistant", "<|im_end|>"}
}

func (a *chatMLAdapter) GenerationConfig() GenerationConfig {
	if a.family == FamilyPhi {
		return GenerationConfig{Temperature: 0.6, TopP: 0.9, TopK: 40, RepetitionPenalty: 1.1, MaxTokens: 1024}
	}
	return GenerationConfig{Temperature: 0.7, TopP: 0.8, TopK: 20, RepetitionPenalty: 1.05, MaxTokens: 1024}
}
