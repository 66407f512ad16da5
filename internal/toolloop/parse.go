// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package toolloop

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var toolUseRe = regexp.MustCompile(`(?s)<tool_use>\s*<name>(.*?)</name>\s*<parameters>(.*?)</parameters>\s*</tool_use>`)

// ParseToolCalls scans raw model output for <tool_use> blocks. Calls
// with an empty name are skipped per spec.md §4.5 step 2. A
// <parameters> block that isn't valid JSON fails the whole generation
// — the caller should treat this as a hard error, not a skip.
func ParseToolCalls(raw string) ([]ToolCall, error) {
	matches := toolUseRe.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil, nil
	}
	var calls []ToolCall
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		params := strings.TrimSpace(m[2])
		if !json.Valid([]byte(params)) {
			return nil, fmt.Errorf("%w: tool %q: %s", ErrInvalidParameters, name, params)
		}
		calls = append(calls, ToolCall{Name: name, Parameters: json.RawMessage(params)})
	}
	return calls, nil
}

// StripToolUse removes any stray <tool_use>...</tool_use> fragments
// from text, used when generation contains tags but none of them
// parsed into a usable call (spec.md §4.5 step 3).
func StripToolUse(text string) string {
	return strings.TrimSpace(toolUseRe.ReplaceAllString(text, ""))
}
