package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/user/chatrelay/pkg/llm"
)

// stream adapts a chat completion stream to llm.Stream. Tool calls arrive
// as fragments keyed by index; they are reassembled and reported complete
// once the upstream stream ends.
type stream struct {
	src     *openai.ChatCompletionStream
	pending []llm.Chunk
	calls   map[int]*toolCallState
	order   []int
	done    bool

	finishReason string
	usage        *llm.Usage
}

type toolCallState struct {
	id      string
	name    string
	args    strings.Builder
	started bool
}

func newStream(src *openai.ChatCompletionStream) *stream {
	return &stream{
		src:   src,
		calls: make(map[int]*toolCallState),
	}
}

func (s *stream) Recv() (llm.Chunk, error) {
	for len(s.pending) == 0 {
		if s.done {
			return llm.Chunk{}, io.EOF
		}
		resp, err := s.src.Recv()
		if errors.Is(err, io.EOF) {
			s.finish()
			continue
		}
		if err != nil {
			return llm.Chunk{}, fmt.Errorf("gateway stream: %w", err)
		}
		s.handle(resp)
	}
	c := s.pending[0]
	s.pending = s.pending[1:]
	return c, nil
}

func (s *stream) Close() error {
	return s.src.Close()
}

func (s *stream) handle(resp openai.ChatCompletionStreamResponse) {
	if resp.Usage != nil {
		s.usage = &llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		}
	}

	for _, choice := range resp.Choices {
		if choice.Index != 0 {
			continue
		}
		if choice.Delta.Content != "" {
			s.pending = append(s.pending, llm.Chunk{Type: llm.ChunkTextDelta, Text: choice.Delta.Content})
		}
		for _, tc := range choice.Delta.ToolCalls {
			s.handleToolCall(tc)
		}
		if choice.FinishReason != "" {
			s.finishReason = string(choice.FinishReason)
		}
	}
}

func (s *stream) handleToolCall(tc openai.ToolCall) {
	idx := 0
	if tc.Index != nil {
		idx = *tc.Index
	}
	st, ok := s.calls[idx]
	if !ok {
		st = &toolCallState{}
		s.calls[idx] = st
		s.order = append(s.order, idx)
	}
	if tc.ID != "" {
		st.id = tc.ID
	}
	if tc.Function.Name != "" {
		st.name = tc.Function.Name
	}
	st.args.WriteString(tc.Function.Arguments)

	delta := tc.Function.Arguments
	if !st.started {
		if st.id == "" || st.name == "" {
			return
		}
		st.started = true
		s.pending = append(s.pending, llm.Chunk{Type: llm.ChunkToolCallStart, ToolCallID: st.id, ToolName: st.name})
		// fragments buffered before the call was identified go out as one delta
		delta = st.args.String()
	}
	if delta != "" {
		s.pending = append(s.pending, llm.Chunk{Type: llm.ChunkToolCallDelta, ToolCallID: st.id, Text: delta})
	}
}

func (s *stream) finish() {
	for _, idx := range s.order {
		st := s.calls[idx]
		args := st.args.String()
		if args == "" {
			args = "{}"
		}
		s.pending = append(s.pending, llm.Chunk{
			Type:       llm.ChunkToolCall,
			ToolCallID: st.id,
			ToolName:   st.name,
			Args:       json.RawMessage(args),
		})
	}
	s.pending = append(s.pending, llm.Chunk{
		Type:         llm.ChunkFinish,
		FinishReason: s.finishReason,
		Usage:        s.usage,
	})
	s.done = true
}
