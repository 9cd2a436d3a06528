// Package server provides HTTP server setup for the review service.
package server

import (
	"net/http"

	"github.com/lendline/lendline-stack/common/dlq"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/metrics"
	"github.com/lendline/lendline-stack/common/middleware"
	"github.com/lendline/lendline-stack/review/internal/handlers"
)

// NewRouter constructs a ServeMux with the officer API registered behind CORS.
func NewRouter(h *handlers.Handler, health http.Handler, deadLetters dlq.Store, cors middleware.CORSConfig, logger *logging.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/healthz", health)
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/api/v1/applications/", h.ApplicationHandler)
	mux.HandleFunc("/api/v1/documents/", h.DocumentHandler)

	dlqHandler := dlq.Handler(deadLetters, logger.Logger)
	mux.Handle("/api/v1/dlq", dlqHandler)
	mux.Handle("/api/v1/dlq/", dlqHandler)

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.AccessLog(logger.Logger),
		middleware.CORS(cors),
	)
}
