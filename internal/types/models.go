// internal/types/models.go
package types

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Role tags a chat message. The set is closed; values outside it survive
// JSON decoding and are rejected during translation.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
	RoleSystem    Role = "SYSTEM"
	RoleTool      Role = "TOOL"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

type ChatMessage struct {
	Role       Role       `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID *string    `json:"toolCallId,omitempty"`
	Name       *string    `json:"name,omitempty"`
}

type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the tool name and its arguments as serialized JSON.
type FunctionCall struct {
	Name          string `json:"name"`
	ArgumentsJSON string `json:"argumentsJson"`
}

// ToolDefinition describes a tool the model may call. InputSchema is kept
// as the client sent it; clients are not held to any JSON Schema draft.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// CompletionRequest is the body of POST /api/completions. A nil Messages
// slice means the field was missing: absent, null, or another falsy value
// (false, 0, "").
type CompletionRequest struct {
	Messages []ChatMessage    `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	ModelID  string           `json:"modelId,omitempty"`
}

func (r *CompletionRequest) UnmarshalJSON(data []byte) error {
	type plain CompletionRequest
	var body struct {
		plain
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	*r = CompletionRequest(body.plain)
	r.Messages = nil
	if falsy(body.Messages) {
		return nil
	}
	return json.Unmarshal(body.Messages, &r.Messages)
}

// falsy reports whether raw is a missing value or a JSON literal that
// JavaScript treats as false.
func falsy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch string(v) {
	case "", "null", "false", `""`:
		return true
	}
	if c := v[0]; c == '-' || (c >= '0' && c <= '9') {
		f, err := strconv.ParseFloat(string(v), 64)
		return err == nil && f == 0
	}
	return false
}

// Text returns the message content, or "" when it is null.
func (m *ChatMessage) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}
