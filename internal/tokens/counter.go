// Package tokens estimates prompt sizes for request logging.
package tokens

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/chatrelay/pkg/llm"
)

// Counter counts tokens with a tiktoken encoding. Counts are estimates: the
// gateway routes to models whose tokenizers differ from OpenAI's.
type Counter struct {
	tokenizer *tiktoken.Tiktoken
}

// New creates a counter for model. A gateway model id such as
// "openai/gpt-4o" is matched on the part after the provider prefix; unknown
// models use cl100k_base.
func New(model string) (*Counter, error) {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Counter{tokenizer: enc}, nil
}

// Count returns the token count for text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.tokenizer.Encode(text, nil, nil))
}

// CountRequest estimates the prompt tokens of req: the system prompt, every
// message part and the tool descriptions.
func (c *Counter) CountRequest(req *llm.Request) int {
	n := c.Count(req.System)
	for _, msg := range req.Messages {
		for _, p := range msg.Parts {
			switch p.Type {
			case llm.PartText:
				n += c.Count(p.Text)
			case llm.PartToolCall:
				n += c.Count(p.ToolName)
				n += c.Count(string(p.Args))
			case llm.PartToolResult:
				n += c.Count(p.Result.String())
			}
		}
	}
	for name, tool := range req.Tools {
		n += c.Count(name)
		if tool.Description != nil {
			n += c.Count(*tool.Description)
		}
	}
	return n
}
