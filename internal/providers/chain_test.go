// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package providers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AleutianAI/shammah/internal/messages"
)

// fakeProvider is a minimal in-memory Provider for chain tests that
// don't need real HTTP wire verification (that is anthropic_test.go's,
// openaicompat_test.go's, and gemini_test.go's job).
type fakeProvider struct {
	name       string
	model      string
	err        error
	streamErr  error
	streaming  bool
	calls      *int
	wireModels *[]string
}

func (f *fakeProvider) Name() string            { return f.name }
func (f *fakeProvider) DefaultModel() string    { return f.model }
func (f *fakeProvider) SupportsStreaming() bool { return f.streaming }
func (f *fakeProvider) SupportsTools() bool     { return true }

func (f *fakeProvider) SendMessage(ctx context.Context, req Request) (*Response, error) {
	if f.calls != nil {
		*f.calls++
	}
	if f.wireModels != nil {
		*f.wireModels = append(*f.wireModels, f.model) // a real provider always sends its OWN model
	}
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Content: "from " + f.name, StopReason: "end"}, nil
}

func (f *fakeProvider) SendMessageStream(ctx context.Context, req Request, cb StreamCallback) error {
	if f.streamErr != nil {
		return f.streamErr
	}
	return cb(StreamEvent{Type: StreamEventToken, Content: "chunk from " + f.name})
}

func testReq() Request {
	return Request{
		Model:    "caller-supplied-model",
		Messages: []messages.Message{{Role: messages.RoleUser, Content: []messages.ContentBlock{messages.Text("hi")}}},
	}
}

func TestFallbackChain_FirstSuccessWins(t *testing.T) {
	calls1, calls2 := 0, 0
	p1 := &fakeProvider{name: "p1", model: "m1", calls: &calls1}
	p2 := &fakeProvider{name: "p2", model: "m2", calls: &calls2}

	chain, err := NewFallbackChain([]Provider{p1, p2}, nil)
	if err != nil {
		t.Fatalf("NewFallbackChain: %v", err)
	}

	resp, err := chain.SendMessage(context.Background(), testReq())
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Content != "from p1" {
		t.Errorf("Content = %q, want from p1", resp.Content)
	}
	if calls1 != 1 || calls2 != 0 {
		t.Errorf("calls1=%d calls2=%d, want 1,0 (second provider must not be tried)", calls1, calls2)
	}
}

func TestFallbackChain_FallsThroughOnError(t *testing.T) {
	p1 := &fakeProvider{name: "p1", model: "m1", err: errors.New("boom")}
	p2 := &fakeProvider{name: "p2", model: "m2"}

	chain, _ := NewFallbackChain([]Provider{p1, p2}, nil)
	resp, err := chain.SendMessage(context.Background(), testReq())
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if resp.Content != "from p2" {
		t.Errorf("Content = %q, want from p2", resp.Content)
	}
}

func TestFallbackChain_AllFailAggregateError(t *testing.T) {
	p1 := &fakeProvider{name: "p1", model: "m1", err: errors.New("p1 down")}
	p2 := &fakeProvider{name: "p2", model: "m2", err: errors.New("p2 down")}

	chain, _ := NewFallbackChain([]Provider{p1, p2}, nil)
	_, err := chain.SendMessage(context.Background(), testReq())
	if err == nil {
		t.Fatal("expected aggregate error when every provider fails")
	}
	msg := err.Error()
	for _, want := range []string{"p1", "p2", "p1 down", "p2 down"} {
		if !strings.Contains(msg, want) {
			t.Errorf("aggregate error %q should mention %q", msg, want)
		}
	}
}

func TestFallbackChain_PerHopModelSubstitution(t *testing.T) {
	var wireModels []string
	p1 := &fakeProvider{name: "p1", model: "claude-m", err: errors.New("down"), wireModels: &wireModels}
	p2 := &fakeProvider{name: "p2", model: "gemini-m", wireModels: &wireModels}

	chain, _ := NewFallbackChain([]Provider{p1, p2}, nil)
	req := testReq()
	req.Model = "some-caller-model"
	if _, err := chain.SendMessage(context.Background(), req); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	want := []string{"claude-m", "gemini-m"}
	if len(wireModels) != 2 || wireModels[0] != want[0] || wireModels[1] != want[1] {
		t.Fatalf("wireModels = %v, want %v (each hop must send its own model, never the caller's and never the other hop's)", wireModels, want)
	}
}

func TestFallbackChain_ChainOfOneCollapsesToSingleProvider(t *testing.T) {
	p1 := &fakeProvider{name: "solo", model: "m"}
	chain, _ := NewFallbackChain([]Provider{p1}, nil)
	if chain.Name() != "solo" || chain.DefaultModel() != "m" {
		t.Errorf("chain of one must report the sole provider's identity")
	}
}

func TestFallbackChain_StreamMidFailureDoesNotRetry(t *testing.T) {
	calls2 := 0
	p1 := &fakeProvider{name: "p1", model: "m1", streaming: true, streamErr: errors.New("connection reset")}
	p2 := &fakeProvider{name: "p2", model: "m2", streaming: true, calls: &calls2}

	chain, _ := NewFallbackChain([]Provider{p1, p2}, nil)
	err := chain.SendMessageStream(context.Background(), testReq(), func(StreamEvent) error { return nil })
	if err == nil {
		t.Fatal("expected mid-stream failure to propagate")
	}
	if calls2 != 0 {
		t.Error("a mid-stream failure must not fall through to the next provider")
	}
}

func TestFallbackChain_StreamOpenFailureRetries(t *testing.T) {
	p1 := &fakeProvider{name: "p1", model: "m1", streaming: true, streamErr: newOpenFailure(errors.New("connect refused"))}
	p2 := &fakeProvider{name: "p2", model: "m2", streaming: true}

	chain, _ := NewFallbackChain([]Provider{p1, p2}, nil)
	var got string
	err := chain.SendMessageStream(context.Background(), testReq(), func(e StreamEvent) error {
		got = e.Content
		return nil
	})
	if err != nil {
		t.Fatalf("SendMessageStream: %v", err)
	}
	if got != "chunk from p2" {
		t.Errorf("got %q, want the second provider's chunk", got)
	}
}
