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

// deepSeekAdapter implements DeepSeek's Instruction/Response template,
// wrapped in DeepSeek's sentence tokens. coder selects the Coder variant,
// whose output is almost always fenced and needs the outer fence peeled
// off even when plain prose was requested.
type deepSeekAdapter struct {
	coder bool
}

func (a *deepSeekAdapter) Family() Family {
	if a.coder {
		return FamilyDeepSeekCoder
	}
	return FamilyDeepSeek
}

func (a *deepSeekAdapter) FormatChatPrompt(system, user string) string {
	sys := constitutionSentinel
	if system != "" {
		sys = sys + "\n" + system
	}
	return fmt.Sprintf(
		"<｜begin▁of▁sentence｜>%s\n### Instruction:\n%s\n### Response:\n",
		sys, user,
	)
}

func (a *deepSeekAdapter) EOSTokenID() int {
	if a.coder {
		return 32021
	}
	return 100001 // <｜end▁of▁sentence｜>
}

func (a *deepSeekAdapter) BOSTokenID() (int, bool) { return 100000, true }

func (a *deepSeekAdapter) CleanOutput(raw string) string {
	out := stripEOSToken(raw, "<｜end▁of▁sentence｜>")
	out = stripRoleMarkers(out, "<｜begin▁of▁sentence｜>", "### Instruction:", "### Response:")
	out = stripLeadingRoleWord(out)
	out = stripThinkBlocks(out)
	if a.coder {
		out = stripOuterCodeFence(out)
	}
	out = stripPromptEcho(out, constitutionSentinel, "### Instruction:")
	return trimClean(out)
}

func (a *deepSeekAdapter) Markers() []string {
	m := []string{"<｜end▁of▁sentence｜>", "<｜begin▁of▁sentence｜>", "### Instruction:", "### Response:", "<think>", "</think>"}
	if a.coder {
		m = append(m, "```")
	}
	return m
}

func (a *deepSeekAdapter) GenerationConfig() GenerationConfig {
	if a.coder {
		return GenerationConfig{Temperature: 0.3, TopP: 0.95, TopK: 30, RepetitionPenalty: 1.0, MaxTokens: 2048}
	}
	return GenerationConfig{Temperature: 0.5, TopP: 0.95, TopK: 30, RepetitionPenalty: 1.0, MaxTokens: 1536}
}
