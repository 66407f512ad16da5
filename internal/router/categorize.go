// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package router

import "strings"

// codeMarkers are substrings whose presence strongly suggests the query
// itself contains or asks about source code.
var codeMarkers = []string{"```", "fn ", "def "}

var debuggingKeywords = []string{"error", "fix", "bug", "broken", "doesn't work"}

var greetingOpeners = []string{"hi", "hello", "hey", "good morning", "good afternoon"}

var comparisonMarkers = []string{" vs ", " versus ", "difference between", "compare"}

var opinionMarkers = []string{"should i", "is it better", "recommend"}

// Categorize assigns a QueryCategory to a raw query string. It is a pure,
// side-effect-free function of its input: the rules below are evaluated
// in order and the first match wins, per the adaptive router's
// categorization contract.
func Categorize(text string) QueryCategory {
	lower := strings.ToLower(strings.TrimSpace(text))

	if containsAny(lower, codeMarkers) {
		return CategoryCode
	}
	if containsAny(lower, debuggingKeywords) {
		return CategoryDebugging
	}
	if cat, ok := firstTwoWordsCategory(lower); ok {
		return cat
	}
	if isGreeting(lower) {
		return CategoryGreeting
	}
	if strings.Contains(lower, "explain") || strings.Contains(lower, "describe") || strings.HasPrefix(lower, "why") {
		return CategoryExplanation
	}
	if containsAny(lower, comparisonMarkers) {
		return CategoryComparison
	}
	if containsAny(lower, opinionMarkers) {
		return CategoryOpinion
	}
	return CategoryOther
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// firstTwoWordsCategory checks the query's first two words against the
// "what is/who is/what are" (Definition) and "how to/how do/how can"
// (HowTo) prefixes.
func firstTwoWordsCategory(lower string) (QueryCategory, bool) {
	fields := strings.Fields(lower)
	if len(fields) < 2 {
		return "", false
	}
	prefix := fields[0] + " " + fields[1]
	switch prefix {
	case "what is", "who is", "what are":
		return CategoryDefinition, true
	case "how to", "how do", "how can":
		return CategoryHowTo, true
	}
	return "", false
}

// isGreeting matches short (<= 3 word) queries beginning with a greeting
// opener.
func isGreeting(lower string) bool {
	if len(strings.Fields(lower)) > 3 {
		return false
	}
	for _, g := range greetingOpeners {
		if strings.HasPrefix(lower, g) {
			return true
		}
	}
	return false
}
