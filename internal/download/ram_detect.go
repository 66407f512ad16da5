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

import "log/slog"

// defaultRAMGB is used when DetectRAMBytes fails (unsupported platform,
// permission error) so SelectSize still has something to work with.
const defaultRAMGB = 16

// DetectRAMGB returns the host's total RAM in whole gigabytes, falling
// back to defaultRAMGB with a logged warning when detection fails.
func DetectRAMGB(logger *slog.Logger) uint64 {
	bytes, err := DetectRAMBytes()
	if err != nil {
		if logger != nil {
			logger.Warn("RAM detection failed, assuming default", slog.Any("error", err), slog.Uint64("default_gb", defaultRAMGB))
		}
		return defaultRAMGB
	}
	return bytes / (1 << 30)
}
