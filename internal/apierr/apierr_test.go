// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/AleutianAI/shammah/internal/inference"
	"github.com/AleutianAI/shammah/internal/toolloop"
)

func TestClassify_ModelNotReady(t *testing.T) {
	status, body := Classify(fmt.Errorf("wrap: %w", inference.ErrNotReady))
	if status != http.StatusServiceUnavailable || body.Error.Type != KindModelNotReady {
		t.Errorf("status=%d body=%+v", status, body)
	}
}

func TestClassify_ToolLoopExhausted(t *testing.T) {
	status, body := Classify(toolloop.ErrToolLoopExhausted)
	if status != http.StatusInternalServerError || body.Error.Type != KindToolLoopExhausted {
		t.Errorf("status=%d body=%+v", status, body)
	}
}

func TestClassify_ToolParse(t *testing.T) {
	status, body := Classify(fmt.Errorf("bad params: %w", toolloop.ErrInvalidParameters))
	if status != http.StatusInternalServerError || body.Error.Type != KindToolParse {
		t.Errorf("status=%d body=%+v", status, body)
	}
}

func TestClassify_UnknownErrorIsInternal(t *testing.T) {
	status, body := Classify(errors.New("boom"))
	if status != http.StatusInternalServerError || body.Error.Type != KindInternal {
		t.Errorf("status=%d body=%+v", status, body)
	}
}

func TestBadRequest(t *testing.T) {
	status, body := BadRequest("messages must not be empty")
	if status != http.StatusBadRequest || body.Error.Type != KindBadRequest {
		t.Errorf("status=%d body=%+v", status, body)
	}
}

func TestModelNotReady(t *testing.T) {
	status, body := ModelNotReady()
	if status != http.StatusServiceUnavailable || body.Error.Type != KindModelNotReady {
		t.Errorf("status=%d body=%+v", status, body)
	}
}

func TestTeacherFailure(t *testing.T) {
	status, body := TeacherFailure(errors.New("providers: all 2 providers failed"))
	if status != http.StatusInternalServerError || body.Error.Type != KindTeacherTransport {
		t.Errorf("status=%d body=%+v", status, body)
	}
}
