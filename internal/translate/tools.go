package translate

import (
	"bytes"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/user/chatrelay/internal/types"
	"github.com/user/chatrelay/pkg/llm"
)

// AdaptTools keys tool definitions by name. A later definition replaces an
// earlier one with the same name. The result is never nil.
func AdaptTools(tools []types.ToolDefinition) map[string]llm.ToolDescriptor {
	out := make(map[string]llm.ToolDescriptor, len(tools))
	for _, t := range tools {
		out[t.Name] = llm.ToolDescriptor{
			Description: t.Description,
			Parameters:  parameters(t.InputSchema),
		}
	}
	return out
}

// parameters decodes raw as a JSON Schema. Schemas outside what jsonschema
// models (draft-03 boolean "required", a string "required") are forwarded
// untouched; a missing schema becomes an empty object schema.
func parameters(raw json.RawMessage) any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &jsonschema.Schema{Type: "object"}
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return raw
	}
	return &schema
}
