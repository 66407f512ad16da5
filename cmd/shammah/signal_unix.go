// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build !windows

package main

import "golang.org/x/sys/unix"

// sendTerm delivers SIGTERM, the same signal internal/lifecycle's
// WaitForSignal listens for to start the daemon's drain sequence.
func sendTerm(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}
