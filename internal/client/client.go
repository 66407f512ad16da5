// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package client implements spec.md §4.7's thin client: auto-spawn the
// daemon if it isn't already listening, forward queries to it over
// HTTP, and degrade to a direct single-shot call through the teacher
// fallback chain if the daemon can't be reached at all.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/AleutianAI/shammah/internal/config"
	"github.com/AleutianAI/shammah/internal/lifecycle"
	"github.com/AleutianAI/shammah/internal/messages"
	"github.com/AleutianAI/shammah/internal/providers"
)

// ErrDaemonUnreachable is returned when the daemon could not be reached
// even after an auto-spawn attempt, and the caller asked not to degrade
// (the `query --direct` path maps this to exit code 4 per spec.md §6).
var ErrDaemonUnreachable = errors.New("client: daemon unreachable")

// Client is the thin client described by spec.md §4.7: it owns no
// model state of its own, only an HTTP connection to the daemon and a
// fallback chain to degrade to when the daemon can't be raised.
type Client struct {
	cfg        *config.Config
	home       string
	httpClient *http.Client
	teachers   *providers.FallbackChain
	logger     *slog.Logger
}

// New builds a Client. home is the shammah home directory (typically
// ~/.shammah) the PID file and daemon log live under.
func New(cfg *config.Config, home string, teachers *providers.FallbackChain, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		home:       home,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		teachers:   teachers,
		logger:     logger,
	}
}

// QueryResult is what the CLI prints: the response text, the session
// id to pass on the next call to keep the conversation going (empty
// when Degraded, since a direct-teacher call never touches the
// daemon's session store), and whether it came from the daemon or a
// degraded direct-teacher call.
type QueryResult struct {
	Content    string
	SessionID  string
	ViaDaemon  bool
	Degraded   bool
	DegradeErr error
}

// Query sends text through the daemon, auto-spawning it first if
// use_daemon is on and it isn't already up. If the daemon can't be
// reached and allowDegrade is true, it falls through to a single-shot
// call against the teacher chain directly. If allowDegrade is false,
// a failed daemon reach returns ErrDaemonUnreachable.
func (c *Client) Query(ctx context.Context, sessionID, text string, allowDegrade bool) (*QueryResult, error) {
	if c.cfg.Client.UseDaemon {
		if err := c.EnsureDaemon(ctx); err != nil {
			c.logger.Warn("daemon unreachable", "error", err)
			if !allowDegrade {
				return nil, fmt.Errorf("%w: %v", ErrDaemonUnreachable, err)
			}
			return c.degrade(ctx, text, err)
		}

		resp, respSessionID, err := c.forward(ctx, sessionID, text)
		if err == nil {
			return &QueryResult{Content: resp, SessionID: respSessionID, ViaDaemon: true}, nil
		}
		c.logger.Warn("daemon request failed", "error", err)
		if !allowDegrade {
			return nil, fmt.Errorf("%w: %v", ErrDaemonUnreachable, err)
		}
		return c.degrade(ctx, text, err)
	}
	return c.degrade(ctx, text, nil)
}

func (c *Client) degrade(ctx context.Context, text string, cause error) (*QueryResult, error) {
	if c.teachers == nil {
		return nil, fmt.Errorf("%w: no fallback chain configured", ErrDaemonUnreachable)
	}
	resp, err := c.teachers.SendMessage(ctx, providers.Request{
		Model:    c.teachers.DefaultModel(),
		Messages: []messages.Message{{Role: messages.RoleUser, Content: []messages.ContentBlock{messages.Text(text)}}},
	})
	if err != nil {
		return nil, fmt.Errorf("client: direct-teacher fallback also failed: %w", err)
	}
	return &QueryResult{Content: resp.Content, Degraded: true, DegradeErr: cause}, nil
}

// EnsureDaemon health-checks the configured bind address, and if it
// isn't responding, spawns the daemon binary detached and polls health
// for up to the configured timeout before giving up.
func (c *Client) EnsureDaemon(ctx context.Context) error {
	if c.healthy(ctx) {
		return nil
	}

	binary := c.cfg.Client.DaemonBinaryPath
	if binary == "" {
		return errors.New("client: daemon not running and no daemon_binary_path configured")
	}
	pidPath := lifecycle.PIDPath(c.home)
	logPath := filepath.Join(c.home, "daemon.log")
	args := []string{"daemon", "--bind", c.cfg.Daemon.BindAddr}

	if err := lifecycle.SpawnDetached(pidPath, binary, args, logPath); err != nil && !errors.Is(err, lifecycle.ErrAlreadyRunning) {
		return fmt.Errorf("client: spawning daemon: %w", err)
	}

	timeout := c.cfg.Client.HealthPollTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.healthy(ctx) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
	return fmt.Errorf("client: daemon did not become healthy within %s", timeout)
}

func (c *Client) healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+c.cfg.Daemon.BindAddr+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// chatRequest/chatResponse mirror internal/daemon's wire shape closely
// enough for the client's one-message, one-turn use case; the client
// deliberately doesn't import internal/daemon; that package's request
// type carries server-side fields (Stream, N, ...) the client never
// sets, and the two boundaries evolve independently.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	SessionID string        `json:"session_id,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Choices   []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) forward(ctx context.Context, sessionID, text string) (content, respSessionID string, err error) {
	body, err := json.Marshal(chatRequest{
		Model:     "shammah-local",
		Messages:  []chatMessage{{Role: "user", Content: text}},
		SessionID: sessionID,
	})
	if err != nil {
		return "", "", fmt.Errorf("client: encoding request: %w", err)
	}

	url := "http://" + c.cfg.Daemon.BindAddr + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("client: daemon request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("client: daemon returned status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", fmt.Errorf("client: decoding response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", "", errors.New("client: daemon response had no choices")
	}
	return out.Choices[0].Message.Content, out.SessionID, nil
}
