package llm

import "context"

// Provider dispatches completion requests to a hosted model gateway.
type Provider interface {
	// Stream starts a streaming completion. Errors returned here happen
	// before any output is produced; later failures surface from Stream.Recv.
	Stream(ctx context.Context, req *Request) (Stream, error)
}

// Stream yields the incremental output of a completion.
type Stream interface {
	// Recv returns the next chunk, or io.EOF once the completion is done.
	Recv() (Chunk, error)
	Close() error
}

// Config holds common configuration for gateway providers.
type Config struct {
	BaseURL     string
	APIKey      string
	MaxTokens   int
	Temperature float32
}
