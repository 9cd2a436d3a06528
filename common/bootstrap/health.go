package bootstrap

import (
	"context"
	"net/http"

	"github.com/lendline/lendline-stack/common/httputil"
	"github.com/lendline/lendline-stack/common/messaging"
)

// Pinger is satisfied by repositories.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Service  string                 `json:"service"`
	Broker   messaging.HealthStatus `json:"broker"`
	Database string                 `json:"database"`
}

// HealthHandler reports broker and database health. It answers 503 when either is down.
func HealthHandler(service string, client messaging.Client, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Service:  service,
			Broker:   messaging.CheckClientHealth(r.Context(), client),
			Database: "ok",
		}
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				resp.Database = err.Error()
				resp.Status = "degraded"
			}
		}
		if !resp.Broker.Healthy() {
			resp.Status = "degraded"
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSONAPI(w, status, map[string]interface{}{"meta": resp})
	}
}
