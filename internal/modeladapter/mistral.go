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

// mistralAdapter implements Mistral-Instruct's [INST]...[/INST] wrapping.
// Mistral has no dedicated system slot, so the system text is folded
// into the head of the instruction block.
type mistralAdapter struct{}

func (a *mistralAdapter) Family() Family { return FamilyMistral }

func (a *mistralAdapter) FormatChatPrompt(system, user string) string {
	sys := constitutionSentinel
	if system != "" {
		sys = sys + "\n" + system
	}
	return fmt.Sprintf("<s>[INST] %s\n\n%s [/INST]", sys, user)
}

func (a *mistralAdapter) EOSTokenID() int { return 2 }

func (a *mistralAdapter) BOSTokenID() (int, bool) { return 1, true }

func (a *mistralAdapter) CleanOutput(raw string) string {
	out := stripEOSToken(raw, "</s>")
	out = stripRoleMarkers(out, "<s>", "[INST]", "[/INST]")
	out = stripPromptEcho(out, constitutionSentinel, "[/INST]")
	return trimClean(out)
}

func (a *mistralAdapter) Markers() []string {
	return []string{"</s>", "<s>", "[INST]", "[/INST]"}
}

func (a *mistralAdapter) GenerationConfig() GenerationConfig {
	return GenerationConfig{Temperature: 0.7, TopP: 0.9, TopK: 40, RepetitionPenalty: 1.1, MaxTokens: 1024}
}
