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

// gemmaAdapter implements Gemma's <start_of_turn>/<end_of_turn> template.
// Gemma has no system role either; the system text is folded into the
// head of the first user turn, matching Google's own documented
// workaround for system prompting.
type gemmaAdapter struct{}

func (a *gemmaAdapter) Family() Family { return FamilyGemma }

func (a *gemmaAdapter) FormatChatPrompt(system, user string) string {
	sys := constitutionSentinel
	if system != "" {
		sys = sys + "\n" + system
	}
	return fmt.Sprintf(
		"<start_of_turn>user\n%s\n\n%s<end_of_turn>\n<start_of_turn>model\n",
		sys, user,
	)
}

func (a *gemmaAdapter) EOSTokenID() int { return 1 } // <end_of_turn>

func (a *gemmaAdapter) BOSTokenID() (int, bool) { return 2, true }

func (a *gemmaAdapter) CleanOutput(raw string) string {
	out := stripEOSToken(raw, "<end_of_turn>")
	out = stripRoleMarkers(out, "<start_of_turn>user", "<start_of_turn>model", "<bos>", "<eos>")
	out = stripPromptEcho(out, constitutionSentinel, "<start_of_turn>model")
	return trimClean(out)
}

func (a *gemmaAdapter) Markers() []string {
	return []string{"<end_of_turn>", "<start_of_turn>user", "<start_of_turn>model", "<bos>", "<eos>"}
}

func (a *gemmaAdapter) GenerationConfig() GenerationConfig {
	return GenerationConfig{Temperature: 0.8, TopP: 0.95, TopK: 64, RepetitionPenalty: 1.0, MaxTokens: 1024}
}
