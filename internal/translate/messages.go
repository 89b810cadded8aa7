// Package translate maps the application chat model onto the gateway wire
// model.
package translate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/chatrelay/internal/types"
	"github.com/user/chatrelay/pkg/llm"
)

var (
	// ErrUnknownRole is returned for a message whose role is outside the
	// known set.
	ErrUnknownRole = errors.New("unknown messages role")

	// ErrMalformedArguments is returned when a tool call's argumentsJson does
	// not parse.
	ErrMalformedArguments = errors.New("malformed tool call arguments")
)

// NormalizeMessages converts messages one-to-one, preserving order. The first
// unknown role or malformed tool call aborts the whole conversion.
func NormalizeMessages(messages []types.ChatMessage) ([]llm.Message, error) {
	out := make([]llm.Message, 0, len(messages))
	for i := range messages {
		msg, err := normalize(&messages[i])
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func normalize(m *types.ChatMessage) (llm.Message, error) {
	switch m.Role {
	case types.RoleUser:
		return llm.Message{Role: llm.RoleUser, Parts: []llm.Part{llm.TextPart(m.Text())}}, nil

	case types.RoleSystem:
		return llm.Message{Role: llm.RoleSystem, Parts: []llm.Part{llm.TextPart(m.Text())}}, nil

	case types.RoleAssistant:
		parts := make([]llm.Part, 0, 1+len(m.ToolCalls))
		if text := m.Text(); text != "" {
			parts = append(parts, llm.TextPart(text))
		}
		for _, tc := range m.ToolCalls {
			args, err := parseArguments(tc)
			if err != nil {
				return llm.Message{}, err
			}
			parts = append(parts, llm.ToolCallPart(tc.ID, tc.Function.Name, args))
		}
		return llm.Message{Role: llm.RoleAssistant, Parts: parts}, nil

	case types.RoleTool:
		part := llm.ToolResultPart(deref(m.ToolCallID), deref(m.Name), ParseToolResult(m.Content))
		return llm.Message{Role: llm.RoleTool, Parts: []llm.Part{part}}, nil

	default:
		return llm.Message{}, fmt.Errorf("%w: %s", ErrUnknownRole, m.Role)
	}
}

func parseArguments(tc types.ToolCall) (json.RawMessage, error) {
	var args json.RawMessage
	if err := json.Unmarshal([]byte(tc.Function.ArgumentsJSON), &args); err != nil {
		return nil, fmt.Errorf("%w for call %q: %v", ErrMalformedArguments, tc.ID, err)
	}
	return args, nil
}

// ParseToolResult interprets tool output. Content that parses as JSON becomes
// a structured result; anything else is kept verbatim as text. Null or empty
// content is JSON null.
func ParseToolResult(content *string) llm.ToolResult {
	if content == nil || *content == "" {
		return llm.JSONResult(nil)
	}
	if !json.Valid([]byte(*content)) {
		return llm.TextResult(*content)
	}
	return llm.JSONResult(json.RawMessage(*content))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
