package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lendline/lendline-stack/common/dlq"
	"github.com/lendline/lendline-stack/common/events"
	"github.com/lendline/lendline-stack/common/idgen"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/middleware"
	"github.com/lendline/lendline-stack/origination/internal/handlers"
	"github.com/lendline/lendline-stack/origination/internal/publisher"
	"github.com/lendline/lendline-stack/origination/internal/repository"
	"github.com/lendline/lendline-stack/origination/internal/service"
)

type nopSender struct{}

func (nopSender) Publish(context.Context, events.Envelope) {}

func TestNewRouter(t *testing.T) {
	svc := service.NewService(repository.NewMemoryRepository(), idgen.NewSequence(1), publisher.NewPublisher(nopSender{}), logging.Discard())
	h := handlers.NewHandler(svc, logging.Discard())
	health := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	router := NewRouter(h, health, dlq.NewMemory(), logging.Discard())

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/v1/borrowers", http.StatusOK},
		{"/api/v1/borrowers/5", http.StatusNotFound},
		{"/api/v1/loan-applications", http.StatusOK},
		{"/api/v1/loan-applications/5", http.StatusNotFound},
		{"/api/v1/documents", http.StatusOK},
		{"/api/v1/documents/5", http.StatusNotFound},
		{"/api/v1/dlq", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))
		})
	}
}
