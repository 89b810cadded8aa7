package openai

import (
	"context"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/user/chatrelay/pkg/llm"
)

// DefaultBaseURL is the OpenAI-compatible endpoint of the hosted AI gateway.
const DefaultBaseURL = "https://ai-gateway.vercel.sh/v1"

// Client implements the llm.Provider interface for OpenAI-compatible gateways.
type Client struct {
	config *llm.Config
	api    *openai.Client
}

// New creates a new gateway client with the given configuration. Requests
// carry no client-side timeout; they are bounded by the caller's context.
func New(config *llm.Config) *Client {
	cfg := openai.DefaultConfig(config.APIKey)
	cfg.BaseURL = DefaultBaseURL
	if config.BaseURL != "" {
		cfg.BaseURL = config.BaseURL
	}
	return &Client{
		config: config,
		api:    openai.NewClientWithConfig(cfg),
	}
}

// Stream sends a streaming chat completion request. An error is returned
// when the gateway rejects the request before producing output.
func (c *Client) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:         req.Model,
		Messages:      toChatMessages(req.System, req.Messages),
		Tools:         toTools(req.Tools),
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}
	if c.config.MaxTokens > 0 {
		chatReq.MaxTokens = c.config.MaxTokens
	}
	if c.config.Temperature != 0 {
		chatReq.Temperature = c.config.Temperature
	}

	stream, err := c.api.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	return newStream(stream), nil
}

// toChatMessages maps gateway messages onto the chat completions wire format.
// Assistant tool-call parts become tool_calls; each tool-result part becomes
// its own tool message.
func toChatMessages(system string, messages []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleTool:
			for _, p := range msg.Parts {
				if p.Type != llm.PartToolResult {
					continue
				}
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    p.Result.String(),
					Name:       p.ToolName,
					ToolCallID: p.ToolCallID,
				})
			}
		case llm.RoleAssistant:
			m := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Text(),
			}
			for _, p := range msg.Parts {
				if p.Type != llm.PartToolCall {
					continue
				}
				args := string(p.Args)
				if args == "" {
					args = "{}"
				}
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   p.ToolCallID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      p.ToolName,
						Arguments: args,
					},
				})
			}
			out = append(out, m)
		default:
			out = append(out, openai.ChatCompletionMessage{
				Role:    string(msg.Role),
				Content: msg.Text(),
			})
		}
	}
	return out
}

// toTools converts the tool mapping into function tools ordered by name.
func toTools(tools map[string]llm.ToolDescriptor) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]openai.Tool, 0, len(names))
	for _, name := range names {
		desc := tools[name]
		fn := &openai.FunctionDefinition{
			Name:       name,
			Parameters: desc.Parameters,
		}
		if desc.Description != nil {
			fn.Description = *desc.Description
		}
		out = append(out, openai.Tool{Type: openai.ToolTypeFunction, Function: fn})
	}
	return out
}
