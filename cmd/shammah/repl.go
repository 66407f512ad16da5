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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AleutianAI/shammah/internal/client"
	"github.com/AleutianAI/shammah/internal/config"
)

// runRepl is the default command (no subcommand given): a simple
// read-query-print loop that keeps one session id across turns so the
// daemon sees a continuous conversation, matching the teacher's
// interactive chat mode in spirit (cmd_chat.go's line-by-line loop)
// without reusing its tool-call/indexing machinery, which belongs to a
// different domain entirely.
func runRepl(stdin io.Reader, stdout io.Writer) error {
	cfgPath, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf(exitConfigError, "%v", err)
	}
	c, err := buildClient(cfg)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "shammah — type your message, Ctrl-D to exit")
	scanner := bufio.NewScanner(stdin)
	var sessionID string
	ctx := context.Background()

	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			break
		}
		text := scanner.Text()
		if text == "" {
			continue
		}

		result, err := c.Query(ctx, sessionID, text, true)
		if err != nil {
			if errors.Is(err, client.ErrDaemonUnreachable) {
				fmt.Fprintf(stdout, "error: %v\n", err)
				continue
			}
			return err
		}
		if result.Degraded {
			fmt.Fprintf(stdout, "(daemon unavailable, answered directly: %v)\n", result.DegradeErr)
		}
		if result.SessionID != "" {
			sessionID = result.SessionID
		}
		fmt.Fprintln(stdout, result.Content)
	}
	return scanner.Err()
}
