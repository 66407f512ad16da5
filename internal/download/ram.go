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

import "fmt"

// ErrInsufficientRAM is returned by SelectSize when the machine has too
// little memory to run any supported size, rather than silently
// falling back to one that would OOM.
var ErrInsufficientRAM = fmt.Errorf("download: insufficient RAM for local inference")

// SelectSize maps available system RAM, in gigabytes, to a Size tier
// per spec.md §4.3's fixed bands: <8 fails outright, 8-15 Small,
// 16-31 Medium, 32-63 Large, >=64 XLarge.
func SelectSize(ramGB uint64) (Size, error) {
	switch {
	case ramGB < 8:
		return "", fmt.Errorf("%w: %d GB available, need at least 8", ErrInsufficientRAM, ramGB)
	case ramGB < 16:
		return SizeSmall, nil
	case ramGB < 32:
		return SizeMedium, nil
	case ramGB < 64:
		return SizeLarge, nil
	default:
		return SizeXLarge, nil
	}
}
