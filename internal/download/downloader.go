// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package download

import (
	"fmt"
	"io"
	"net/http"
	"os"
)

// ProgressFunc reports download progress: bytes fetched so far and the
// total when known (0 if the server didn't send Content-Length).
type ProgressFunc func(downloaded, total int64)

// Fetcher downloads a model file with resume support: if dst already
// has partial content from a prior interrupted run, it requests the
// remainder with a Range header instead of starting over.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher returns a Fetcher using http.DefaultClient.
func NewFetcher() *Fetcher { return &Fetcher{Client: http.DefaultClient} }

// Fetch downloads url to dst, resuming from dst's current size if it
// already exists and the server honors Range requests. Returns the
// final file size.
func (f *Fetcher) Fetch(url, dst string, progress ProgressFunc) (int64, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	var resumeFrom int64
	if stat, err := os.Stat(dst); err == nil {
		resumeFrom = stat.Size()
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("download: build request: %w", err)
	}
	if resumeFrom > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeFrom))
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download: request failed: %w", err)
	}
	defer resp.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY
	switch resp.StatusCode {
	case http.StatusOK:
		// Server ignored the Range header (or there was nothing to
		// resume); start from scratch.
		flags |= os.O_TRUNC
		resumeFrom = 0
	case http.StatusPartialContent:
		flags |= os.O_APPEND
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("download: server returned %d: %s", resp.StatusCode, body)
	}

	out, err := os.OpenFile(dst, flags, 0o644)
	if err != nil {
		return 0, fmt.Errorf("download: open %s: %w", dst, err)
	}
	defer out.Close()

	total := resp.ContentLength
	if total > 0 && resp.StatusCode == http.StatusPartialContent {
		total += resumeFrom
	}

	downloaded := resumeFrom
	buf := make([]byte, 256*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return downloaded, fmt.Errorf("download: write %s: %w", dst, werr)
			}
			downloaded += int64(n)
			if progress != nil {
				progress(downloaded, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return downloaded, fmt.Errorf("download: read body: %w", readErr)
		}
	}
	return downloaded, nil
}
