// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package daemon

import "context"

// CrisisHook is an extension point spec.md names as an adjunct feature
// and explicitly puts out of scope for the core router/provider/tool
// loop. A non-nil hook runs before routing and may veto the normal
// local/forward decision (e.g. forcing a Forward to a safety-tuned
// teacher); the default server leaves this nil, which is a no-op.
type CrisisHook func(ctx context.Context, text string) (intervene bool, response string)

// ToolApprover gates whether a parsed tool call is allowed to execute.
// spec.md's ApprovalPattern data model is out of scope for this build;
// this interface exists so a future approval UI has somewhere to plug
// in without changing the request-handling path. The zero value used
// when Server.Approver is nil approves everything.
type ToolApprover interface {
	Approve(ctx context.Context, toolName string, params []byte) bool
}

// alwaysApprove is the default ToolApprover: every call is allowed.
type alwaysApprove struct{}

func (alwaysApprove) Approve(context.Context, string, []byte) bool { return true }
