// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package inference

import "context"

// GenerateParams carries the sampling knobs the engine contract names:
// temperature, top-p, top-k, repetition penalty, and a token budget.
type GenerateParams struct {
	Temperature       float32
	TopP              float32
	TopK              int
	RepetitionPenalty float32
	MaxTokens         int
	Stop              []string
}

// TokenDelta is one piece of a streamed generation.
type TokenDelta struct {
	Text string
	Done bool
}

// Handle is a loaded model ready to generate against. Backends that
// proxy a local inference server (llama.cpp's llama-server, an Ollama
// instance, vLLM) implement this directly; Engine never depends on how
// the process backing it works.
type Handle interface {
	Generate(ctx context.Context, prompt string, params GenerateParams) (string, error)
	GenerateStream(ctx context.Context, prompt string, params GenerateParams) (<-chan TokenDelta, error)
	// ReloadLoRA hot-swaps the adapter weights at path without reloading
	// the resident base model. Returns an error if the backend doesn't
	// support hot reload or the file can't be applied.
	ReloadLoRA(path string) error
	MemoryBytes() uint64
	Close() error
}

// Loader resolves a model family/size to an on-disk path (downloading it
// first if necessary) and loads it into a Handle. Separated from Handle
// so BootstrapLoader can report Downloading vs. Loading distinctly.
type Loader interface {
	Resolve(ctx context.Context, progress func(status string)) (path string, err error)
	Load(ctx context.Context, path string) (Handle, error)
}
