// Package server provides HTTP server setup for the scoring service.
package server

import (
	"net/http"

	"github.com/lendline/lendline-stack/common/dlq"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/metrics"
	"github.com/lendline/lendline-stack/common/middleware"
	"github.com/lendline/lendline-stack/scoring/internal/handlers"
)

// NewRouter constructs a ServeMux with scoring API routes registered.
func NewRouter(h *handlers.Handler, health http.Handler, deadLetters dlq.Store, logger *logging.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/healthz", health)
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/api/v1/scores", h.ScoresHandler)
	mux.HandleFunc("/api/v1/scores/", h.ScoreHandler)

	dlqHandler := dlq.Handler(deadLetters, logger.Logger)
	mux.Handle("/api/v1/dlq", dlqHandler)
	mux.Handle("/api/v1/dlq/", dlqHandler)

	return middleware.Chain(mux, middleware.RequestID, middleware.AccessLog(logger.Logger))
}
