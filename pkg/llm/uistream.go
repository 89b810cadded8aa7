package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// StreamResult turns a completion stream into a UI message stream response:
// server-sent events carrying one JSON chunk each, terminated by [DONE].
type StreamResult struct {
	stream    Stream
	messageID string
}

// NewStreamResult wraps stream. messageID is announced in the start chunk.
func NewStreamResult(stream Stream, messageID string) *StreamResult {
	return &StreamResult{stream: stream, messageID: messageID}
}

// uiChunk is the wire form of a UI message stream chunk.
type uiChunk struct {
	Type           string          `json:"type"`
	MessageID      string          `json:"messageId,omitempty"`
	ID             string          `json:"id,omitempty"`
	Delta          string          `json:"delta,omitempty"`
	ToolCallID     string          `json:"toolCallId,omitempty"`
	ToolName       string          `json:"toolName,omitempty"`
	InputTextDelta string          `json:"inputTextDelta,omitempty"`
	Input          json.RawMessage `json:"input,omitempty"`
	ErrorText      string          `json:"errorText,omitempty"`
}

// ServeHTTP writes the whole stream to w and closes the underlying stream.
// Failures after the headers are sent are reported as an error chunk.
func (r *StreamResult) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	defer r.stream.Close()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("x-vercel-ai-ui-message-stream", "v1")
	w.WriteHeader(http.StatusOK)

	sw := newSSEWriter(w)
	if err := r.pump(sw); err != nil {
		slog.Error("completion stream failed", "message_id", r.messageID, "error", err)
		sw.send(uiChunk{Type: "error", ErrorText: err.Error()})
	}
	sw.done()
	if sw.err != nil {
		slog.Debug("client write failed", "message_id", r.messageID, "error", sw.err)
	}
}

func (r *StreamResult) pump(sw *sseWriter) error {
	sw.send(uiChunk{Type: "start", MessageID: r.messageID})
	sw.send(uiChunk{Type: "start-step"})

	var (
		textID   string
		textSeq  int
		textOpen bool
	)
	closeText := func() {
		if textOpen {
			sw.send(uiChunk{Type: "text-end", ID: textID})
			textOpen = false
		}
	}

	for {
		chunk, err := r.stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			closeText()
			return err
		}

		switch chunk.Type {
		case ChunkTextDelta:
			if chunk.Text == "" {
				continue
			}
			if !textOpen {
				textID = fmt.Sprintf("text-%d", textSeq)
				textSeq++
				textOpen = true
				sw.send(uiChunk{Type: "text-start", ID: textID})
			}
			sw.send(uiChunk{Type: "text-delta", ID: textID, Delta: chunk.Text})
		case ChunkToolCallStart:
			closeText()
			sw.send(uiChunk{Type: "tool-input-start", ToolCallID: chunk.ToolCallID, ToolName: chunk.ToolName})
		case ChunkToolCallDelta:
			sw.send(uiChunk{Type: "tool-input-delta", ToolCallID: chunk.ToolCallID, InputTextDelta: chunk.Text})
		case ChunkToolCall:
			closeText()
			sw.send(uiChunk{
				Type:       "tool-input-available",
				ToolCallID: chunk.ToolCallID,
				ToolName:   chunk.ToolName,
				Input:      toolInput(chunk.Args),
			})
		case ChunkFinish:
			if chunk.Usage != nil {
				slog.Debug("completion finished",
					"message_id", r.messageID,
					"finish_reason", chunk.FinishReason,
					"input_tokens", chunk.Usage.InputTokens,
					"output_tokens", chunk.Usage.OutputTokens,
				)
			}
		}
	}

	closeText()
	sw.send(uiChunk{Type: "finish-step"})
	sw.send(uiChunk{Type: "finish"})
	return nil
}

// toolInput returns args as a JSON value, quoting them as a string when the
// model produced arguments that do not parse.
func toolInput(args json.RawMessage) json.RawMessage {
	if len(args) == 0 {
		return json.RawMessage("{}")
	}
	if json.Valid(args) {
		return args
	}
	quoted, _ := json.Marshal(string(args))
	return quoted
}

// sseWriter writes server-sent events and flushes after each one. The first
// write error is kept and later writes are dropped.
type sseWriter struct {
	w     io.Writer
	flush func()
	err   error
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	sw := &sseWriter{w: w, flush: func() {}}
	if f, ok := w.(http.Flusher); ok {
		sw.flush = f.Flush
	}
	return sw
}

func (s *sseWriter) send(c uiChunk) {
	if s.err != nil {
		return
	}
	data, err := json.Marshal(c)
	if err != nil {
		s.err = err
		return
	}
	s.writeData(data)
}

func (s *sseWriter) done() {
	s.writeData([]byte("[DONE]"))
}

func (s *sseWriter) writeData(data []byte) {
	if s.err != nil {
		return
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		s.err = err
		return
	}
	s.flush()
}
