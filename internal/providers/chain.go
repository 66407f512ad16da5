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
	"fmt"
	"log/slog"
)

// FallbackChain tries an ordered list of providers, stopping at the
// first success. It is itself a Provider so the daemon doesn't need to
// special-case a chain of length 1 versus many.
type FallbackChain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewFallbackChain builds a chain from an ordered, non-empty provider
// list. A chain of length 1 behaves exactly like calling that provider
// directly — there is no added overhead beyond one slice indirection.
func NewFallbackChain(providers []Provider, logger *slog.Logger) (*FallbackChain, error) {
	if len(providers) == 0 {
		return nil, errors.New("providers: fallback chain requires at least one provider")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackChain{providers: providers, logger: logger}, nil
}

// Name and DefaultModel report the first provider's identity, matching
// the chain's display role — the per-hop model substitution inside
// SendMessage/SendMessageStream is unaffected by this.
func (c *FallbackChain) Name() string         { return c.providers[0].Name() }
func (c *FallbackChain) DefaultModel() string { return c.providers[0].DefaultModel() }

func (c *FallbackChain) SupportsStreaming() bool {
	for _, p := range c.providers {
		if p.SupportsStreaming() {
			return true
		}
	}
	return false
}

func (c *FallbackChain) SupportsTools() bool {
	for _, p := range c.providers {
		if p.SupportsTools() {
			return true
		}
	}
	return false
}

// SendMessage tries each provider in order, returning the first success.
// Each hop sends its own default model on the wire (every concrete
// Provider ignores Request.Model internally) — the chain never rewrites
// the model field itself, it simply doesn't forward one provider's
// choice to the next.
func (c *FallbackChain) SendMessage(ctx context.Context, req Request) (*Response, error) {
	var errs []error
	for _, p := range c.providers {
		resp, err := p.SendMessage(ctx, req)
		if err == nil {
			return resp, nil
		}
		c.logger.Warn("providers: hop failed, trying next",
			slog.String("provider", p.Name()), slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return nil, fmt.Errorf("providers: all %d providers failed: %w", len(c.providers), errors.Join(errs...))
}

// SendMessageStream opens a stream on the first provider that accepts
// it. Only a pre-connection ("open") failure advances to the next
// provider; a mid-stream failure is returned directly to the caller,
// since the caller may already have received partial output and a
// retry would risk delivering it twice.
func (c *FallbackChain) SendMessageStream(ctx context.Context, req Request, cb StreamCallback) error {
	var errs []error
	var openErr *openFailure
	for _, p := range c.providers {
		if !p.SupportsStreaming() {
			continue
		}
		err := p.SendMessageStream(ctx, req, cb)
		if err == nil {
			return nil
		}
		if !errors.As(err, &openErr) {
			return fmt.Errorf("providers: mid-stream failure from %s: %w", p.Name(), err)
		}
		c.logger.Warn("providers: stream open failed, trying next",
			slog.String("provider", p.Name()), slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	if len(errs) == 0 {
		return errors.New("providers: no provider in the chain supports streaming")
	}
	return fmt.Errorf("providers: all streaming-capable providers failed to open: %w", errors.Join(errs...))
}
