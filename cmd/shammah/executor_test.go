// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"strings"
	"testing"

	"github.com/AleutianAI/shammah/internal/toolloop"
)

func TestUnavailableExecutor_AlwaysErrors(t *testing.T) {
	body, isError, err := unavailableExecutor{}.Execute(context.Background(), toolloop.ToolCall{Name: "read_file"})
	if err != nil {
		t.Fatalf("Execute returned err = %v, want nil (the failure is communicated via isError)", err)
	}
	if !isError {
		t.Fatal("Execute isError = false, want true")
	}
	if !strings.Contains(body, "read_file") {
		t.Errorf("Execute body = %q, want it to name the requested tool", body)
	}
}
