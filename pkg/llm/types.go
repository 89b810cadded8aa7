package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the gateway-side role of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// PartType tags the kind of a content part.
type PartType string

const (
	PartText       PartType = "text"
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
)

// Message is a role-tagged, ordered list of content parts. On the wire the
// content collapses to a bare string when the message is not a tool message
// and holds exactly one text part.
type Message struct {
	Role  Role
	Parts []Part
}

// Text concatenates the message's text parts.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func (m Message) MarshalJSON() ([]byte, error) {
	var content any
	if m.Role != RoleTool && len(m.Parts) == 1 && m.Parts[0].Type == PartText {
		content = m.Parts[0].Text
	} else {
		parts := m.Parts
		if parts == nil {
			parts = []Part{}
		}
		content = parts
	}
	return json.Marshal(struct {
		Role    Role `json:"role"`
		Content any  `json:"content"`
	}{m.Role, content})
}

// Part is one element of a message's content. Which fields are meaningful
// depends on Type.
type Part struct {
	Type       PartType
	Text       string
	ToolCallID string
	ToolName   string
	Args       json.RawMessage
	Result     ToolResult
}

func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

func ToolCallPart(id, name string, args json.RawMessage) Part {
	return Part{Type: PartToolCall, ToolCallID: id, ToolName: name, Args: args}
}

func ToolResultPart(id, name string, result ToolResult) Part {
	return Part{Type: PartToolResult, ToolCallID: id, ToolName: name, Result: result}
}

func (p Part) MarshalJSON() ([]byte, error) {
	switch p.Type {
	case PartText:
		return json.Marshal(struct {
			Type PartType `json:"type"`
			Text string   `json:"text"`
		}{p.Type, p.Text})
	case PartToolCall:
		args := p.Args
		if len(args) == 0 {
			args = json.RawMessage("null")
		}
		return json.Marshal(struct {
			Type       PartType        `json:"type"`
			ToolCallID string          `json:"toolCallId"`
			ToolName   string          `json:"toolName"`
			Args       json.RawMessage `json:"args"`
		}{p.Type, p.ToolCallID, p.ToolName, args})
	case PartToolResult:
		return json.Marshal(struct {
			Type       PartType   `json:"type"`
			ToolCallID string     `json:"toolCallId"`
			ToolName   string     `json:"toolName"`
			Result     ToolResult `json:"result"`
		}{p.Type, p.ToolCallID, p.ToolName, p.Result})
	default:
		return nil, fmt.Errorf("unknown part type %q", p.Type)
	}
}

// ToolResultKind distinguishes a structured tool result from opaque text.
type ToolResultKind int

const (
	// ToolResultJSON holds a parsed JSON value. A nil Value is JSON null.
	ToolResultJSON ToolResultKind = iota
	// ToolResultText holds tool output that was not valid JSON.
	ToolResultText
)

// ToolResult is the outcome of a tool call as fed back to the model.
type ToolResult struct {
	Kind  ToolResultKind
	Value json.RawMessage
	Text  string
}

func JSONResult(v json.RawMessage) ToolResult {
	return ToolResult{Kind: ToolResultJSON, Value: v}
}

func TextResult(s string) ToolResult {
	return ToolResult{Kind: ToolResultText, Text: s}
}

// String renders the result as text: raw output verbatim, JSON values as JSON.
func (r ToolResult) String() string {
	if r.Kind == ToolResultText {
		return r.Text
	}
	if len(r.Value) == 0 {
		return "null"
	}
	return string(r.Value)
}

func (r ToolResult) MarshalJSON() ([]byte, error) {
	if r.Kind == ToolResultText {
		return json.Marshal(r.Text)
	}
	if len(r.Value) == 0 {
		return []byte("null"), nil
	}
	return r.Value, nil
}

// ToolDescriptor is the gateway definition of a single tool. The tool's name
// is the key it is stored under.
// Parameters is a *jsonschema.Schema when the client's schema decodes as
// one, otherwise the client's JSON forwarded verbatim as a json.RawMessage.
type ToolDescriptor struct {
	Description *string `json:"description,omitempty"`
	Parameters  any     `json:"parameters"`
}

// Request is a single streaming completion call.
type Request struct {
	Model    string                    `json:"model"`
	System   string                    `json:"system"`
	Messages []Message                 `json:"messages"`
	Tools    map[string]ToolDescriptor `json:"tools"`
}

// Usage tracks token consumption for a request/response pair.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ChunkType tags an incremental streaming event.
type ChunkType string

const (
	ChunkTextDelta     ChunkType = "text-delta"
	ChunkToolCallStart ChunkType = "tool-call-start"
	ChunkToolCallDelta ChunkType = "tool-call-delta"
	ChunkToolCall      ChunkType = "tool-call"
	ChunkFinish        ChunkType = "finish"
)

// Chunk is one incremental event of a streaming completion.
type Chunk struct {
	Type ChunkType

	// Text is the text delta, or the argument fragment for ChunkToolCallDelta.
	Text string

	ToolCallID string
	ToolName   string

	// Args holds the complete arguments of a ChunkToolCall.
	Args json.RawMessage

	FinishReason string
	Usage        *Usage
}
