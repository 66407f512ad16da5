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

import "strings"

// stripLeadingRoleWord removes a bare role name ("assistant", "user",
// "system") echoed at the very start of the output, the way DeepSeek
// checkpoints sometimes repeat the role word right after the sentence
// token instead of (or in addition to) a tagged marker.
func stripLeadingRoleWord(s string) string {
	t := strings.TrimLeft(s, "\n\r \t")
	for _, role := range []string{"assistant", "user", "system"} {
		if !strings.HasPrefix(t, role) {
			continue
		}
		rest := t[len(role):]
		if rest == "" || rest[0] == '\n' || rest[0] == ' ' || rest[0] == ':' {
			return strings.TrimLeft(rest, "\n\r :\t ")
		}
	}
	return s
}

// trimClean is the final pass every adapter's CleanOutput applies after
// its family-specific stripping, collapsing leftover leading/trailing
// whitespace from removed tokens.
func trimClean(s string) string { return strings.TrimSpace(s) }

// stripEOSToken removes a trailing end-of-turn token and anything after
// it. Models occasionally continue generating past eos under sampling;
// the first occurrence is what terminates the turn.
func stripEOSToken(s, token string) string {
	if token == "" {
		return s
	}
	if i := strings.Index(s, token); i >= 0 {
		return s[:i]
	}
	return s
}

// stripRoleMarkers removes any of the given role/template tokens that
// the model echoed into its own output, which happens most often right
// after a base (non-instruct) checkpoint or a truncated context window.
func stripRoleMarkers(s string, markers ...string) string {
	for _, m := range markers {
		s = strings.ReplaceAll(s, m, "")
	}
	return s
}

// stripThinkBlocks removes every <think>...</think> region, including
// nested occurrences and a trailing unclosed one. DeepSeek-R1-distilled
// checkpoints emit these as scratch reasoning that isn't part of the
// answer.
func stripThinkBlocks(s string) string {
	const open, close = "<think>", "</think>"
	var out strings.Builder
	depth := 0
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], open):
			depth++
			i += len(open)
		case strings.HasPrefix(s[i:], close):
			if depth > 0 {
				depth--
			}
			i += len(close)
		case depth == 0:
			out.WriteByte(s[i])
			i++
		default:
			i++
		}
	}
	return out.String()
}

// stripOuterCodeFence removes one layer of ``` fencing that wraps the
// entire response, a habit DeepSeek-Coder has even when asked for plain
// prose. Fences embedded mid-answer (e.g. multiple separate snippets)
// are left untouched.
func stripOuterCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	nl := strings.IndexByte(t, '\n')
	if nl == -1 {
		return s
	}
	body := strings.TrimRight(t[nl+1:], "\n \t")
	if !strings.HasSuffix(body, "```") {
		return s
	}
	return strings.TrimSuffix(body, "```")
}

// stripPromptEcho drops the whole output when it looks like the model
// echoed its own system prompt instead of answering: it starts with the
// fixed sentinel every FormatChatPrompt call embeds at the top of the
// system block, and it still contains the family's instruction marker
// further down (i.e. the echo ran past the system section into the
// user turn's wrapper too, not just a coincidental prefix match).
func stripPromptEcho(s, sentinel, marker string) string {
	t := strings.TrimSpace(s)
	if sentinel == "" {
		return s
	}
	if strings.HasPrefix(t, sentinel) && strings.Contains(t, marker) {
		return ""
	}
	return s
}
