package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// withDeadline bounds each request's context by d. A zero d disables it.
func withDeadline(d time.Duration, next http.Handler) http.Handler {
	if d <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// limit rejects requests with 503 while MaxConcurrent requests are in flight.
func (s *Server) limit(next http.Handler) http.Handler {
	if s.inflight == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.inflight.TryAcquire(1) {
			slog.Warn("rejecting request, server busy", "max_concurrent", s.opts.MaxConcurrent)
			writeJSONError(w, http.StatusServiceUnavailable, "server busy")
			return
		}
		defer s.inflight.Release(1)
		next.ServeHTTP(w, r)
	})
}

// throttle rejects requests with 429 once the configured rate is exceeded.
func (s *Server) throttle(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			slog.Warn("rejecting request, rate limit exceeded", "per_minute", s.opts.RatePerMinute)
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
