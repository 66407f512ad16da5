// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package main is the single-binary entrypoint for shammah: the
// daemon, the thin client, and the setup wizard's config seeder all
// live behind one cobra command tree.
package main

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	Execute(version)
}
