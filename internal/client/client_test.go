// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AleutianAI/shammah/internal/config"
	"github.com/AleutianAI/shammah/internal/providers"
)

func bindAddr(serverURL string) string {
	return strings.TrimPrefix(serverURL, "http://")
}

func newTestConfig(bind string, useDaemon bool) *config.Config {
	cfg := config.Default()
	cfg.Daemon.BindAddr = bind
	cfg.Client.UseDaemon = useDaemon
	cfg.Client.HealthPollSeconds = 1
	return &cfg
}

func TestClient_Query_ForwardsToHealthyDaemon(t *testing.T) {
	daemon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/v1/chat/completions":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"session_id": "sess-1",
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": "hi from daemon"}},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer daemon.Close()

	cfg := newTestConfig(bindAddr(daemon.URL), true)
	c := New(cfg, t.TempDir(), nil, nil)

	res, err := c.Query(context.Background(), "", "hello", true)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !res.ViaDaemon || res.Degraded {
		t.Errorf("res = %+v, want ViaDaemon=true Degraded=false", res)
	}
	if res.Content != "hi from daemon" {
		t.Errorf("Content = %q, want %q", res.Content, "hi from daemon")
	}
}

func TestClient_Query_DegradesToTeacherWhenDaemonUnreachable(t *testing.T) {
	teacherServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "direct teacher reply"}},
			},
		})
	}))
	defer teacherServer.Close()

	provider := providers.NewOpenAICompatProvider("test-key", "gpt-test", teacherServer.URL, "test-teacher")
	chain, err := providers.NewFallbackChain([]providers.Provider{provider}, nil)
	if err != nil {
		t.Fatalf("NewFallbackChain: %v", err)
	}

	cfg := newTestConfig("127.0.0.1:1", true) // nothing listens here
	c := New(cfg, t.TempDir(), chain, nil)

	res, err := c.Query(context.Background(), "", "hello", true)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !res.Degraded || res.ViaDaemon {
		t.Errorf("res = %+v, want Degraded=true ViaDaemon=false", res)
	}
	if res.Content != "direct teacher reply" {
		t.Errorf("Content = %q, want %q", res.Content, "direct teacher reply")
	}
	if res.DegradeErr == nil {
		t.Error("DegradeErr = nil, want the daemon-unreachable cause recorded")
	}
}

func TestClient_Query_NoDegradeReturnsErrDaemonUnreachable(t *testing.T) {
	cfg := newTestConfig("127.0.0.1:1", true)
	c := New(cfg, t.TempDir(), nil, nil)

	_, err := c.Query(context.Background(), "", "hello", false)
	if !errors.Is(err, ErrDaemonUnreachable) {
		t.Fatalf("err = %v, want ErrDaemonUnreachable", err)
	}
}

func TestClient_EnsureDaemon_HealthyReturnsImmediately(t *testing.T) {
	daemon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer daemon.Close()

	cfg := newTestConfig(bindAddr(daemon.URL), true)
	c := New(cfg, t.TempDir(), nil, nil)

	if err := c.EnsureDaemon(context.Background()); err != nil {
		t.Fatalf("EnsureDaemon: %v", err)
	}
}

func TestClient_EnsureDaemon_NoBinaryConfiguredFails(t *testing.T) {
	cfg := newTestConfig("127.0.0.1:1", true)
	c := New(cfg, t.TempDir(), nil, nil)

	if err := c.EnsureDaemon(context.Background()); err == nil {
		t.Fatal("EnsureDaemon: want error when daemon down and no binary path configured")
	}
}
