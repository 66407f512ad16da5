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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/shammah/internal/modeladapter"
)

func TestSelectSize_Bands(t *testing.T) {
	cases := []struct {
		ramGB   uint64
		want    Size
		wantErr bool
	}{
		{7, "", true},
		{8, SizeSmall, false},
		{15, SizeSmall, false},
		{16, SizeMedium, false},
		{31, SizeMedium, false},
		{32, SizeLarge, false},
		{63, SizeLarge, false},
		{64, SizeXLarge, false},
		{256, SizeXLarge, false},
	}
	for _, c := range cases {
		got, err := SelectSize(c.ramGB)
		if c.wantErr {
			if err == nil {
				t.Errorf("SelectSize(%d) = nil error, want an error", c.ramGB)
			}
			continue
		}
		if err != nil {
			t.Errorf("SelectSize(%d): %v", c.ramGB, err)
		}
		if got != c.want {
			t.Errorf("SelectSize(%d) = %s, want %s", c.ramGB, got, c.want)
		}
	}
}

func TestLookup_AllFamiliesHaveAllSizes(t *testing.T) {
	families := []modeladapter.Family{
		modeladapter.FamilyQwen, modeladapter.FamilyLlama, modeladapter.FamilyMistral,
		modeladapter.FamilyPhi, modeladapter.FamilyGemma, modeladapter.FamilyDeepSeek, modeladapter.FamilyDeepSeekCoder,
	}
	sizes := []Size{SizeSmall, SizeMedium, SizeLarge, SizeXLarge}
	for _, f := range families {
		for _, s := range sizes {
			if _, err := Lookup(f, s); err != nil {
				t.Errorf("Lookup(%s, %s): %v", f, s, err)
			}
		}
	}
}

func TestResolve_OverrideShortCircuitsMatrix(t *testing.T) {
	override := &RepoRef{HFRepo: "me/my-custom-model", HFFile: "model.gguf"}
	ref, size, err := Resolve(modeladapter.FamilyQwen, 4, override) // RAM too low to auto-select
	if err != nil {
		t.Fatalf("Resolve with override: %v", err)
	}
	if ref != *override {
		t.Errorf("Resolve() = %+v, want the override untouched", ref)
	}
	if size != "" {
		t.Errorf("size = %q, want empty (override bypasses auto-selection)", size)
	}
}

func TestResolve_AutoSelectsFromRAM(t *testing.T) {
	ref, size, err := Resolve(modeladapter.FamilyLlama, 20, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if size != SizeMedium {
		t.Errorf("size = %s, want %s", size, SizeMedium)
	}
	want, _ := Lookup(modeladapter.FamilyLlama, SizeMedium)
	if ref != want {
		t.Errorf("ref = %+v, want %+v", ref, want)
	}
}

func TestResolve_InsufficientRAMFailsNoOverride(t *testing.T) {
	if _, _, err := Resolve(modeladapter.FamilyQwen, 4, nil); err == nil {
		t.Fatal("expected an error rather than a silent fallback to a too-large model")
	}
}

func TestFetcher_FreshDownload(t *testing.T) {
	const body = "hello model weights"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "model.gguf")
	f := NewFetcher()
	n, err := f.Fetch(server.URL, dst, nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n != int64(len(body)) {
		t.Errorf("Fetch returned %d bytes, want %d", n, len(body))
	}
	got, _ := os.ReadFile(dst)
	if string(got) != body {
		t.Errorf("file contents = %q, want %q", got, body)
	}
}

func TestFetcher_ResumesPartialDownload(t *testing.T) {
	const full = "0123456789ABCDEF"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rng := r.Header.Get("Range")
		if rng == "" {
			w.Write([]byte(full))
			return
		}
		var start int
		if _, err := parseRangeStart(rng, &start); err != nil {
			http.Error(w, "bad range", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Range", "bytes "+rng+"/"+"16")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte(full[start:]))
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "model.gguf")
	if err := os.WriteFile(dst, []byte(full[:8]), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher()
	if _, err := f.Fetch(server.URL, dst, nil); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != full {
		t.Errorf("resumed file = %q, want %q", got, full)
	}
}

// parseRangeStart extracts the start offset from a "bytes=N-" header
// value, for the test server's own Range handling above.
func parseRangeStart(header string, out *int) (int, error) {
	header = strings.TrimPrefix(header, "bytes=")
	header = strings.TrimSuffix(header, "-")
	n := 0
	for _, c := range header {
		if c < '0' || c > '9' {
			return 0, os.ErrInvalid
		}
		n = n*10 + int(c-'0')
	}
	*out = n
	return n, nil
}
