// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package modeladapter formats conversations into each model family's
// native chat template and cleans raw generations back into plain text.
// The inference engine is family-agnostic; everything that varies by
// model (ChatML vs. header-based vs. instruction-tag prompting, and the
// quirks each family's output needs scrubbed) lives here.
package modeladapter

import "fmt"

// constitutionSentinel is prepended to every system block FormatChatPrompt
// builds, regardless of family. clean_output's prompt-echo heuristic looks
// for this fixed prefix to recognize when a model regurgitated its own
// system prompt instead of answering, rather than trying to fingerprint
// arbitrary caller-supplied system text.
const constitutionSentinel = "You are a careful, grounded local assistant."

// Family identifies a supported model family. Each has exactly one
// Adapter implementation; there is no cross-family blending.
type Family string

const (
	FamilyQwen         Family = "qwen"
	FamilyLlama        Family = "llama"
	FamilyMistral      Family = "mistral"
	FamilyPhi          Family = "phi"
	FamilyGemma        Family = "gemma"
	FamilyDeepSeek     Family = "deepseek"
	FamilyDeepSeekCoder Family = "deepseek-coder"
)

// GenerationConfig carries family-appropriate sampling defaults. A
// caller may override any field; zero values mean "use the adapter's
// default" at the call site that builds the final engine request.
type GenerationConfig struct {
	Temperature       float32
	TopP              float32
	TopK              int
	RepetitionPenalty float32
	MaxTokens         int
}

// Adapter is the per-family contract the inference engine drives: turn
// a system/user pair into that family's native prompt string, report
// the tokens that mark end (and optionally start) of generation, and
// scrub a raw completion back into the text a caller should see.
type Adapter interface {
	Family() Family
	FormatChatPrompt(system, user string) string
	EOSTokenID() int
	BOSTokenID() (int, bool)
	CleanOutput(raw string) string
	GenerationConfig() GenerationConfig

	// Markers lists every literal special token CleanOutput strips for
	// this family (eos token plus role/template markers). The streaming
	// path filters token deltas against this same list so a client never
	// sees a fragment of a template marker either.
	Markers() []string
}

// New returns the Adapter for family, or an error if family is not one
// of the supported constants.
func New(family Family) (Adapter, error) {
	switch family {
	case FamilyQwen:
		return &chatMLAdapter{family: FamilyQwen, eosID: 151645, eosToken: "<|im_end|>"}, nil
	case FamilyPhi:
		return &chatMLAdapter{family: FamilyPhi, eosID: 32007, eosToken: "<|end|>"}, nil
	case FamilyMistral:
		return &mistralAdapter{}, nil
	case FamilyLlama:
		return &llamaAdapter{}, nil
	case FamilyGemma:
		return &gemmaAdapter{}, nil
	case FamilyDeepSeek:
		return &deepSeekAdapter{coder: false}, nil
	case FamilyDeepSeekCoder:
		return &deepSeekAdapter{coder: true}, nil
	default:
		return nil, fmt.Errorf("modeladapter: unsupported family %q", family)
	}
}
