// Package server exposes the completion relay over HTTP.
package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/user/chatrelay/internal/config"
	"github.com/user/chatrelay/internal/translate"
	"github.com/user/chatrelay/internal/types"
	"github.com/user/chatrelay/pkg/llm"
)

const unknownError = "An unknown error occurred"

// Options configure a Server. Zero values select the built-in default model
// and leave every limit off.
type Options struct {
	DefaultModel  string
	SystemPrompt  string
	MaxDuration   time.Duration
	MaxConcurrent int64
	// RatePerMinute caps accepted completion requests; RateBurst defaults to 1.
	RatePerMinute int
	RateBurst     int
	// Tokens, when set, is used to log a prompt token estimate. It is only
	// consulted while debug logging is enabled.
	Tokens TokenEstimator
}

// TokenEstimator estimates the prompt size of a request. *tokens.Counter
// implements it.
type TokenEstimator interface {
	CountRequest(req *llm.Request) int
}

// Server is the HTTP handler for the completion relay.
type Server struct {
	provider llm.Provider
	opts     Options
	inflight *semaphore.Weighted
	limiter  *rate.Limiter
	mux      *http.ServeMux
}

// New creates a Server that forwards completions to provider.
func New(provider llm.Provider, opts Options) *Server {
	if opts.DefaultModel == "" {
		opts.DefaultModel = config.DefaultModel
	}
	s := &Server{
		provider: provider,
		opts:     opts,
		mux:      http.NewServeMux(),
	}
	if opts.MaxConcurrent > 0 {
		s.inflight = semaphore.NewWeighted(opts.MaxConcurrent)
	}
	if opts.RatePerMinute > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(float64(opts.RatePerMinute)/60.0), burst)
	}

	var completions http.Handler = http.HandlerFunc(s.handleCompletions)
	completions = withDeadline(opts.MaxDuration, completions)
	completions = s.limit(completions)
	completions = s.throttle(completions)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("POST /api/completions", completions)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleCompletions(w http.ResponseWriter, r *http.Request) {
	reqID := types.NewRequestID()
	w.Header().Set("X-Request-ID", string(reqID))
	log := slog.With("request_id", reqID)

	var body types.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		fail(w, log, err)
		return
	}

	if body.Messages == nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `Missing "messages" in request body`)
		return
	}

	messages, err := translate.NormalizeMessages(body.Messages)
	if err != nil {
		fail(w, log, err)
		return
	}

	model := body.ModelID
	if model == "" {
		model = s.opts.DefaultModel
	}

	req := &llm.Request{
		Model:    model,
		System:   s.opts.SystemPrompt,
		Messages: messages,
		Tools:    translate.AdaptTools(body.Tools),
	}
	if s.opts.Tokens != nil && log.Enabled(r.Context(), slog.LevelDebug) {
		log.Debug("prompt estimate", "tokens", s.opts.Tokens.CountRequest(req))
	}
	log.Info("completion request", "model", model, "messages", len(messages), "tools", len(req.Tools))

	stream, err := s.provider.Stream(r.Context(), req)
	if err != nil {
		fail(w, log, err)
		return
	}

	llm.NewStreamResult(stream, string(reqID)).ServeHTTP(w, r)
}

// fail reports an error raised before any response bytes were written.
func fail(w http.ResponseWriter, log *slog.Logger, err error) {
	log.Error("AI gateway error", "error", err)

	msg := err.Error()
	if msg == "" {
		msg = unknownError
	}
	writeJSONError(w, http.StatusInternalServerError, msg)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
