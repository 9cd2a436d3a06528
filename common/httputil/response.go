// Package httputil holds the JSON:API response writers and request parsing
// helpers shared by the service HTTP layers.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ContentTypeJSONAPI is the media type of every API response.
const ContentTypeJSONAPI = "application/vnd.api+json"

// WriteJSON writes data as plain JSON.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, "application/json", status, data)
}

// WriteJSONAPI writes data as a JSON:API document.
func WriteJSONAPI(w http.ResponseWriter, status int, data interface{}) {
	write(w, ContentTypeJSONAPI, status, data)
}

func write(w http.ResponseWriter, contentType string, status int, data interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// WriteJSONAPIError writes a single JSON:API error.
func WriteJSONAPIError(w http.ResponseWriter, status int, code, title, detail string) {
	WriteJSONAPI(w, status, map[string]interface{}{
		"errors": []JSONAPIErrorObject{NewJSONAPIError(status, code, title, detail)},
	})
}
