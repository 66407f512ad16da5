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

import "github.com/AleutianAI/shammah/internal/modeladapter"

// Resolve picks the HuggingFace repository to pull for family, either
// from an explicit user override (which short-circuits the matrix
// entirely per spec.md §4.3) or, absent one, auto-selecting a Size from
// ramGB and consulting the static matrix.
func Resolve(family modeladapter.Family, ramGB uint64, override *RepoRef) (RepoRef, Size, error) {
	if override != nil {
		return *override, "", nil
	}
	size, err := SelectSize(ramGB)
	if err != nil {
		return RepoRef{}, "", err
	}
	ref, err := Lookup(family, size)
	if err != nil {
		return RepoRef{}, size, err
	}
	return ref, size, nil
}

// DownloadURL returns the HuggingFace resolve-main URL for ref, the
// direct download location the resumable fetcher pulls from.
func (r RepoRef) DownloadURL() string {
	return "https://huggingface.co/" + r.HFRepo + "/resolve/main/" + r.HFFile
}
