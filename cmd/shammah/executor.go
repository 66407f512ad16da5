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
	"fmt"

	"github.com/AleutianAI/shammah/internal/toolloop"
)

// unavailableExecutor satisfies toolloop.Executor when no tool-execution
// sandbox is wired up. The sandbox itself is an external collaborator
// this repo doesn't implement; every call returns an error result so a
// model that emits a tool call gets a ToolResult it can react to,
// rather than the daemon panicking on a nil Executor.
type unavailableExecutor struct{}

func (unavailableExecutor) Execute(_ context.Context, call toolloop.ToolCall) (string, bool, error) {
	return fmt.Sprintf("tool %q is not available: no tool-execution sandbox is configured", call.Name), true, nil
}
