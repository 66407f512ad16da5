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

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/shammah/internal/download"
	"github.com/AleutianAI/shammah/internal/modeladapter"
)

// LlamaServerLoader implements Loader by resolving a (family, size) to
// a HuggingFace GGUF file via internal/download, fetching it into
// ModelsDir if it isn't already there, and handing the resulting path
// to StartLlamaServer. This is the BootstrapLoader's default Loader for
// every family modeladapter.New supports.
type LlamaServerLoader struct {
	Fetcher    *download.Fetcher
	Family     modeladapter.Family
	RAMBytes   uint64
	Override   *download.RepoRef
	ModelsDir  string
	BinaryPath string
	Port       int

	// ReadyTimeout bounds how long StartLlamaServer waits for the
	// spawned process to answer /health. Zero means 60s.
	ReadyTimeout time.Duration
}

// Resolve satisfies Loader: it never downloads twice, since Fetch
// already resumes/no-ops against a complete file on disk.
func (l *LlamaServerLoader) Resolve(ctx context.Context, progress func(status string)) (string, error) {
	ramGB := l.RAMBytes / (1 << 30)
	ref, _, err := download.Resolve(l.Family, ramGB, l.Override)
	if err != nil {
		return "", fmt.Errorf("inference: resolving model: %w", err)
	}

	if err := os.MkdirAll(l.ModelsDir, 0o755); err != nil {
		return "", fmt.Errorf("inference: creating models dir: %w", err)
	}
	dst := filepath.Join(l.ModelsDir, ref.HFFile)

	fetcher := l.Fetcher
	if fetcher == nil {
		fetcher = download.NewFetcher()
	}
	progress(fmt.Sprintf("downloading %s", ref.HFRepo))
	if _, err := fetcher.Fetch(ref.DownloadURL(), dst, func(downloaded, total int64) {
		if total > 0 {
			progress(fmt.Sprintf("downloading %s: %d/%d bytes", ref.HFRepo, downloaded, total))
		}
	}); err != nil {
		return "", fmt.Errorf("inference: fetching model: %w", err)
	}
	return dst, nil
}

// Load satisfies Loader: it starts a llama-server subprocess bound to
// the loader's configured port and waits for it to become healthy.
func (l *LlamaServerLoader) Load(ctx context.Context, path string) (Handle, error) {
	timeout := l.ReadyTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return StartLlamaServer(ctx, l.BinaryPath, path, l.Port, timeout)
}
