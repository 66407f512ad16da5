// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package toolloop

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go"
)

// SchemaValidator checks parsed tool-call parameters against the
// JSON Schema declared in each tool's ToolDefinition before the call
// reaches the external executor, per SPEC_FULL.md §4.5's use of
// jsonschema-go to validate parameter blocks before dispatch.
type SchemaValidator struct {
	resolved map[string]*jsonschema.Resolved
}

// NewSchemaValidator pre-resolves every tool's schema once so
// per-call validation doesn't re-parse JSON Schema on the hot path.
// A tool with no Parameters schema is left unvalidated.
func NewSchemaValidator(tools []ToolDefinition) (*SchemaValidator, error) {
	v := &SchemaValidator{resolved: make(map[string]*jsonschema.Resolved, len(tools))}
	for _, t := range tools {
		if len(t.Parameters) == 0 {
			continue
		}
		var schema jsonschema.Schema
		if err := json.Unmarshal(t.Parameters, &schema); err != nil {
			return nil, fmt.Errorf("toolloop: tool %q: parse schema: %w", t.Name, err)
		}
		resolved, err := schema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("toolloop: tool %q: resolve schema: %w", t.Name, err)
		}
		v.resolved[t.Name] = resolved
	}
	return v, nil
}

// Validate checks call.Parameters against the named tool's schema.
// Tools with no registered schema always pass.
func (v *SchemaValidator) Validate(call ToolCall) error {
	resolved, ok := v.resolved[call.Name]
	if !ok {
		return nil
	}
	var instance any
	if err := json.Unmarshal(call.Parameters, &instance); err != nil {
		return fmt.Errorf("toolloop: tool %q: %w", call.Name, err)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("toolloop: tool %q: parameters failed schema validation: %w", call.Name, err)
	}
	return nil
}
