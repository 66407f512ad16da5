// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package apierr classifies the error kinds spec.md §7 distinguishes
// into the HTTP status and response body the daemon's handlers return,
// so every endpoint reports failures the same way.
package apierr

import (
	"errors"
	"net/http"

	"github.com/AleutianAI/shammah/internal/inference"
	"github.com/AleutianAI/shammah/internal/toolloop"
)

// Kind names one of the error categories spec.md §7 enumerates. Only
// the kinds a daemon handler can actually observe are represented here;
// Configuration and DaemonNotRunning are surfaced at startup or by the
// client, never from within a request handler.
type Kind string

const (
	KindBadRequest        Kind = "invalid_request_error"
	KindModelNotReady     Kind = "model_not_ready"
	KindTeacherTransport  Kind = "teacher_transport_error"
	KindToolParse         Kind = "tool_parse_error"
	KindToolLoopExhausted Kind = "tool_loop_exhausted"
	KindInternal          Kind = "internal_error"
)

// Body is the `{error:{message, type, code?}}` response shape spec.md
// §6 defines for every non-2xx response.
type Body struct {
	Error BodyError `json:"error"`
}

type BodyError struct {
	Message string `json:"message"`
	Type    Kind   `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Classify maps err to the HTTP status and response body the daemon
// should send. badRequest is set by callers that already know the
// failure is a malformed request, before any provider or engine call
// happens (so request validation doesn't need to round-trip an error
// through this function just to get KindBadRequest back out).
func Classify(err error) (status int, body Body) {
	switch {
	case err == nil:
		return http.StatusOK, Body{}
	case errors.Is(err, inference.ErrNotReady):
		return http.StatusServiceUnavailable, Body{Error: BodyError{
			Message: "local model is not ready",
			Type:    KindModelNotReady,
		}}
	case errors.Is(err, toolloop.ErrToolLoopExhausted):
		return http.StatusInternalServerError, Body{Error: BodyError{
			Message: "tool call loop exceeded the maximum number of turns",
			Type:    KindToolLoopExhausted,
		}}
	case errors.Is(err, toolloop.ErrInvalidParameters):
		return http.StatusInternalServerError, Body{Error: BodyError{
			Message: err.Error(),
			Type:    KindToolParse,
		}}
	default:
		return http.StatusInternalServerError, Body{Error: BodyError{
			Message: err.Error(),
			Type:    KindInternal,
		}}
	}
}

// BadRequest builds the 400 body for a malformed request, bypassing
// Classify since no error value exists yet at validation time.
func BadRequest(message string) (int, Body) {
	return http.StatusBadRequest, Body{Error: BodyError{Message: message, Type: KindBadRequest}}
}

// ModelNotReady builds the 503 body for a local_only request rejected
// because the generator isn't Ready.
func ModelNotReady() (int, Body) {
	return http.StatusServiceUnavailable, Body{Error: BodyError{
		Message: "local_only requested but the local model is not ready",
		Type:    KindModelNotReady,
	}}
}

// TeacherFailure builds the 500 body for a fallback chain that
// exhausted every provider. Callers pass the chain's own aggregate
// error, whose message already enumerates each hop's failure.
func TeacherFailure(err error) (int, Body) {
	return http.StatusInternalServerError, Body{Error: BodyError{
		Message: err.Error(),
		Type:    KindTeacherTransport,
	}}
}
