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

import "regexp"

type redactionPattern struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// redactionPatterns is ordered most-specific-first so e.g. an Anthropic
// key (which also starts with "sk-") is labeled correctly rather than
// being caught by the more general OpenAI pattern.
var redactionPatterns = []redactionPattern{
	{regexp.MustCompile(`sk-ant-api03-[A-Za-z0-9_-]{20,}`), "[REDACTED:anthropic_key]"},
	{regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`), "[REDACTED:openai_key]"},
	{regexp.MustCompile(`AIza[A-Za-z0-9_-]{30,}`), "[REDACTED:gemini_key]"},
	{regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]{10,}`), "[REDACTED:bearer_token]"},
	{regexp.MustCompile(`key=[A-Za-z0-9._-]{10,}`), "key=[REDACTED]"},
}

// SafeLogString redacts known API-key and bearer-token shapes from a
// string before it is logged. Pattern-based only; it cannot catch
// secrets in formats it doesn't recognize.
func SafeLogString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range redactionPatterns {
		s = p.Pattern.ReplaceAllString(s, p.Replacement)
	}
	return s
}
