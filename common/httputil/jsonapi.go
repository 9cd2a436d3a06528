package httputil

import (
	"net/http"
	"strconv"
)

// JSONAPIResource is one JSON:API resource object.
type JSONAPIResource struct {
	Type       string      `json:"type"`
	ID         string      `json:"id"`
	Attributes interface{} `json:"attributes"`
}

// Resource builds a resource with a numeric id.
func Resource(resourceType string, id int64, attributes interface{}) JSONAPIResource {
	return JSONAPIResource{Type: resourceType, ID: strconv.FormatInt(id, 10), Attributes: attributes}
}

// WriteJSONAPIResource writes a single resource document.
func WriteJSONAPIResource(w http.ResponseWriter, status int, res JSONAPIResource) {
	WriteJSONAPI(w, status, map[string]interface{}{"data": res})
}

// WriteJSONAPICollection writes a collection document. Pagination metadata is
// added when p is not nil.
func WriteJSONAPICollection(w http.ResponseWriter, status int, data []JSONAPIResource, p *Pagination) {
	if data == nil {
		data = []JSONAPIResource{}
	}
	response := map[string]interface{}{"data": data}
	if p != nil {
		totalPages := 0
		if p.Limit > 0 {
			totalPages = (p.Total + p.Limit - 1) / p.Limit
		}
		response["meta"] = map[string]interface{}{
			"pagination": map[string]interface{}{
				"page":        p.Page,
				"limit":       p.Limit,
				"total":       p.Total,
				"total_pages": totalPages,
			},
		}
	}
	WriteJSONAPI(w, status, response)
}

// JSONAPIErrorObject is one JSON:API error.
type JSONAPIErrorObject struct {
	Status string `json:"status,omitempty"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// NewJSONAPIError creates an error object. JSON:API carries the status as a string.
func NewJSONAPIError(status int, code, title, detail string) JSONAPIErrorObject {
	return JSONAPIErrorObject{
		Status: strconv.Itoa(status),
		Code:   code,
		Title:  title,
		Detail: detail,
	}
}

// WriteJSONAPIValidationError writes a 400.
func WriteJSONAPIValidationError(w http.ResponseWriter, detail string) {
	WriteJSONAPIError(w, http.StatusBadRequest, "validation_failed", "Validation Failed", detail)
}

// WriteJSONAPINotFoundError writes a 404 for the resource of the given type and id.
func WriteJSONAPINotFoundError(w http.ResponseWriter, resourceType, id string) {
	WriteJSONAPIError(w, http.StatusNotFound, "not_found", "Resource Not Found",
		"The requested "+resourceType+" with ID '"+id+"' was not found")
}

// WriteJSONAPIConflictError writes a 409, used for rejected state transitions.
func WriteJSONAPIConflictError(w http.ResponseWriter, detail string) {
	WriteJSONAPIError(w, http.StatusConflict, "conflict", "Conflict", detail)
}

// WriteJSONAPIMethodNotAllowed writes a 405.
func WriteJSONAPIMethodNotAllowed(w http.ResponseWriter) {
	WriteJSONAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed", "")
}

// WriteJSONAPIInternalError writes a 500. Log the cause before calling it.
func WriteJSONAPIInternalError(w http.ResponseWriter, detail string) {
	WriteJSONAPIError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", detail)
}
