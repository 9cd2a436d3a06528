package dlq

import (
	"log/slog"
	"net/http"

	"github.com/lendline/lendline-stack/common/httputil"
)

// Handler serves the dead-letter store of a service:
//
//	GET    /api/v1/dlq?limit=N  list entries
//	GET    /api/v1/dlq/stats    backend statistics
//	DELETE /api/v1/dlq          purge
func Handler(store Store, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/dlq/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httputil.WriteJSONAPIMethodNotAllowed(w)
			return
		}
		httputil.WriteJSONAPI(w, http.StatusOK, map[string]interface{}{"meta": store.Stats(r.Context())})
	})
	mux.HandleFunc("/api/v1/dlq", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			limit := httputil.ParseIntParam(r.URL.Query().Get("limit"), 100)
			entries, err := store.List(r.Context(), limit)
			if err != nil {
				logger.Error("failed to list dead letters", slog.String("error", err.Error()))
				httputil.WriteJSONAPIInternalError(w, "failed to list dead letters")
				return
			}
			data := make([]httputil.JSONAPIResource, len(entries))
			for i, e := range entries {
				data[i] = httputil.JSONAPIResource{Type: "dead_letter", ID: e.Channel + "/" + e.Key, Attributes: e}
			}
			httputil.WriteJSONAPICollection(w, http.StatusOK, data, nil)
		case http.MethodDelete:
			if err := store.Purge(r.Context()); err != nil {
				logger.Error("failed to purge dead letters", slog.String("error", err.Error()))
				httputil.WriteJSONAPIInternalError(w, "failed to purge dead letters")
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			httputil.WriteJSONAPIMethodNotAllowed(w)
		}
	})
	return mux
}
