// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package download resolves a model family and size to a HuggingFace
// repository, auto-selects a size from available RAM, and fetches the
// weights with resume support.
package download

import (
	"fmt"

	"github.com/AleutianAI/shammah/internal/modeladapter"
)

// Size is a family-relative tier. The same Size means different actual
// parameter counts per family (spec.md §4.3: "Small/Medium/Large/XLarge
// maps to e.g. Qwen's 1.5B/3B/7B/14B, Gemma's 2b/9b/27b/27b").
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
	SizeXLarge Size = "xlarge"
)

// RepoRef names the HuggingFace repository and weight file to pull for
// one (family, size) pair.
type RepoRef struct {
	HFRepo string
	HFFile string
}

// matrix is the static compatibility table. Entries are GGUF quantized
// checkpoints chosen for the local-inference path's memory budget.
var matrix = map[modeladapter.Family]map[Size]RepoRef{
	modeladapter.FamilyQwen: {
		SizeSmall:  {HFRepo: "Qwen/Qwen2.5-1.5B-Instruct-GGUF", HFFile: "qwen2.5-1.5b-instruct-q4_k_m.gguf"},
		SizeMedium: {HFRepo: "Qwen/Qwen2.5-3B-Instruct-GGUF", HFFile: "qwen2.5-3b-instruct-q4_k_m.gguf"},
		SizeLarge:  {HFRepo: "Qwen/Qwen2.5-7B-Instruct-GGUF", HFFile: "qwen2.5-7b-instruct-q4_k_m.gguf"},
		SizeXLarge: {HFRepo: "Qwen/Qwen2.5-14B-Instruct-GGUF", HFFile: "qwen2.5-14b-instruct-q4_k_m.gguf"},
	},
	modeladapter.FamilyLlama: {
		SizeSmall:  {HFRepo: "hugging-quants/Llama-3.2-1B-Instruct-Q4_K_M-GGUF", HFFile: "llama-3.2-1b-instruct-q4_k_m.gguf"},
		SizeMedium: {HFRepo: "hugging-quants/Llama-3.2-3B-Instruct-Q4_K_M-GGUF", HFFile: "llama-3.2-3b-instruct-q4_k_m.gguf"},
		SizeLarge:  {HFRepo: "bartowski/Meta-Llama-3.1-8B-Instruct-GGUF", HFFile: "Meta-Llama-3.1-8B-Instruct-Q4_K_M.gguf"},
		SizeXLarge: {HFRepo: "bartowski/Meta-Llama-3.1-8B-Instruct-GGUF", HFFile: "Meta-Llama-3.1-8B-Instruct-Q4_K_M.gguf"},
	},
	modeladapter.FamilyMistral: {
		SizeSmall:  {HFRepo: "bartowski/Mistral-7B-Instruct-v0.3-GGUF", HFFile: "Mistral-7B-Instruct-v0.3-Q4_K_M.gguf"},
		SizeMedium: {HFRepo: "bartowski/Mistral-7B-Instruct-v0.3-GGUF", HFFile: "Mistral-7B-Instruct-v0.3-Q4_K_M.gguf"},
		SizeLarge:  {HFRepo: "bartowski/Mistral-Nemo-Instruct-2407-GGUF", HFFile: "Mistral-Nemo-Instruct-2407-Q4_K_M.gguf"},
		SizeXLarge: {HFRepo: "bartowski/Mistral-Small-Instruct-2409-GGUF", HFFile: "Mistral-Small-Instruct-2409-Q4_K_M.gguf"},
	},
	modeladapter.FamilyPhi: {
		SizeSmall:  {HFRepo: "microsoft/Phi-3-mini-4k-instruct-gguf", HFFile: "Phi-3-mini-4k-instruct-q4.gguf"},
		SizeMedium: {HFRepo: "microsoft/Phi-3-small-8k-instruct-gguf", HFFile: "Phi-3-small-8k-instruct-q4.gguf"},
		SizeLarge:  {HFRepo: "microsoft/Phi-3-medium-4k-instruct-gguf", HFFile: "Phi-3-medium-4k-instruct-q4.gguf"},
		SizeXLarge: {HFRepo: "microsoft/Phi-3-medium-4k-instruct-gguf", HFFile: "Phi-3-medium-4k-instruct-q4.gguf"},
	},
	modeladapter.FamilyGemma: {
		SizeSmall:  {HFRepo: "bartowski/gemma-2-2b-it-GGUF", HFFile: "gemma-2-2b-it-Q4_K_M.gguf"},
		SizeMedium: {HFRepo: "bartowski/gemma-2-9b-it-GGUF", HFFile: "gemma-2-9b-it-Q4_K_M.gguf"},
		SizeLarge:  {HFRepo: "bartowski/gemma-2-27b-it-GGUF", HFFile: "gemma-2-27b-it-Q4_K_M.gguf"},
		SizeXLarge: {HFRepo: "bartowski/gemma-2-27b-it-GGUF", HFFile: "gemma-2-27b-it-Q4_K_M.gguf"},
	},
	modeladapter.FamilyDeepSeek: {
		SizeSmall:  {HFRepo: "bartowski/DeepSeek-R1-Distill-Qwen-1.5B-GGUF", HFFile: "DeepSeek-R1-Distill-Qwen-1.5B-Q4_K_M.gguf"},
		SizeMedium: {HFRepo: "bartowski/DeepSeek-R1-Distill-Qwen-7B-GGUF", HFFile: "DeepSeek-R1-Distill-Qwen-7B-Q4_K_M.gguf"},
		SizeLarge:  {HFRepo: "bartowski/DeepSeek-R1-Distill-Llama-8B-GGUF", HFFile: "DeepSeek-R1-Distill-Llama-8B-Q4_K_M.gguf"},
		SizeXLarge: {HFRepo: "bartowski/DeepSeek-R1-Distill-Qwen-14B-GGUF", HFFile: "DeepSeek-R1-Distill-Qwen-14B-Q4_K_M.gguf"},
	},
	modeladapter.FamilyDeepSeekCoder: {
		SizeSmall:  {HFRepo: "TheBloke/deepseek-coder-1.3b-instruct-GGUF", HFFile: "deepseek-coder-1.3b-instruct.Q4_K_M.gguf"},
		SizeMedium: {HFRepo: "TheBloke/deepseek-coder-6.7B-instruct-GGUF", HFFile: "deepseek-coder-6.7b-instruct.Q4_K_M.gguf"},
		SizeLarge:  {HFRepo: "TheBloke/deepseek-coder-6.7B-instruct-GGUF", HFFile: "deepseek-coder-6.7b-instruct.Q4_K_M.gguf"},
		SizeXLarge: {HFRepo: "TheBloke/deepseek-coder-33B-instruct-GGUF", HFFile: "deepseek-coder-33b-instruct.Q4_K_M.gguf"},
	},
}

// ErrNoMatrixEntry is returned when no (family, size) pair exists.
var ErrNoMatrixEntry = fmt.Errorf("download: no repository entry for that family/size combination")

// Lookup returns the catalog entry for family and size.
func Lookup(family modeladapter.Family, size Size) (RepoRef, error) {
	sizes, ok := matrix[family]
	if !ok {
		return RepoRef{}, fmt.Errorf("download: unknown family %q: %w", family, ErrNoMatrixEntry)
	}
	ref, ok := sizes[size]
	if !ok {
		return RepoRef{}, fmt.Errorf("download: unknown size %q for family %q: %w", size, family, ErrNoMatrixEntry)
	}
	return ref, nil
}
