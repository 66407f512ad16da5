// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package training

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// WriteQueue appends every example in examples as one JSON object per
// line to path, creating the file if necessary, and returns the
// number of lines written. Matches spec.md §4.6's write_training_queue
// contract; callers pass Buffer.drain()'s output.
func WriteQueue(path string, examples []Example) (int, error) {
	if len(examples) == 0 {
		return 0, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("training: open queue %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	n := 0
	for _, ex := range examples {
		line, err := json.Marshal(ex)
		if err != nil {
			return n, fmt.Errorf("training: marshal example: %w", err)
		}
		if _, err := w.Write(line); err != nil {
			return n, fmt.Errorf("training: write queue: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return n, fmt.Errorf("training: write queue: %w", err)
		}
		n++
	}
	if err := w.Flush(); err != nil {
		return n, fmt.Errorf("training: flush queue: %w", err)
	}
	return n, nil
}
