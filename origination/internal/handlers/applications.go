package handlers

import (
	"net/http"

	"github.com/lendline/lendline-stack/common/httputil"
	"github.com/lendline/lendline-stack/origination/internal/repository"
	"github.com/lendline/lendline-stack/origination/internal/service"
)

// ApplicationsHandler handles GET/POST /api/v1/loan-applications
func (h *Handler) ApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, err := parseListFilter(r)
		if err != nil {
			httputil.WriteJSONAPIValidationError(w, err.Error())
			return
		}
		apps, total, err := h.svc.ListApplications(r.Context(), filter)
		if err != nil {
			h.writeError(w, r, "list loan applications", err)
			return
		}
		data := make([]httputil.JSONAPIResource, 0, len(apps))
		for _, a := range apps {
			data = append(data, httputil.Resource(resourceApplication, a.ID, a))
		}
		httputil.WriteJSONAPICollection(w, http.StatusOK, data, pagination(filter, total))

	case http.MethodPost:
		var req service.CreateApplicationRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteJSONAPIValidationError(w, err.Error())
			return
		}
		a, err := h.svc.CreateApplication(r.Context(), req)
		if err != nil {
			h.writeError(w, r, "create loan application", err)
			return
		}
		httputil.WriteJSONAPIResource(w, http.StatusCreated, httputil.Resource(resourceApplication, a.ID, a))

	default:
		httputil.WriteJSONAPIMethodNotAllowed(w)
	}
}

// ApplicationHandler handles GET /api/v1/loan-applications/{id}
func (h *Handler) ApplicationHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONAPIMethodNotAllowed(w)
		return
	}

	id, err := httputil.ParseID(httputil.PathID(r.URL.Path, "/api/v1/loan-applications"))
	if err != nil {
		httputil.WriteJSONAPIValidationError(w, "Loan application ID must be a positive integer")
		return
	}

	a, err := h.svc.GetApplication(r.Context(), id)
	if err != nil {
		h.writeGetError(w, r, resourceApplication, id, repository.ErrApplicationNotFound, err)
		return
	}
	httputil.WriteJSONAPIResource(w, http.StatusOK, httputil.Resource(resourceApplication, a.ID, a))
}

// DocumentsHandler handles GET/POST /api/v1/documents
func (h *Handler) DocumentsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		filter, err := parseListFilter(r)
		if err != nil {
			httputil.WriteJSONAPIValidationError(w, err.Error())
			return
		}
		docs, total, err := h.svc.ListDocuments(r.Context(), filter)
		if err != nil {
			h.writeError(w, r, "list documents", err)
			return
		}
		data := make([]httputil.JSONAPIResource, 0, len(docs))
		for _, d := range docs {
			data = append(data, httputil.Resource(resourceDocument, d.ID, d))
		}
		httputil.WriteJSONAPICollection(w, http.StatusOK, data, pagination(filter, total))

	case http.MethodPost:
		var req service.CreateDocumentRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteJSONAPIValidationError(w, err.Error())
			return
		}
		d, err := h.svc.CreateDocument(r.Context(), req)
		if err != nil {
			h.writeError(w, r, "create document", err)
			return
		}
		httputil.WriteJSONAPIResource(w, http.StatusCreated, httputil.Resource(resourceDocument, d.ID, d))

	default:
		httputil.WriteJSONAPIMethodNotAllowed(w)
	}
}

// DocumentHandler handles GET /api/v1/documents/{id}
func (h *Handler) DocumentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONAPIMethodNotAllowed(w)
		return
	}

	id, err := httputil.ParseID(httputil.PathID(r.URL.Path, "/api/v1/documents"))
	if err != nil {
		httputil.WriteJSONAPIValidationError(w, "Document ID must be a positive integer")
		return
	}

	d, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		h.writeGetError(w, r, resourceDocument, id, repository.ErrDocumentNotFound, err)
		return
	}
	httputil.WriteJSONAPIResource(w, http.StatusOK, httputil.Resource(resourceDocument, d.ID, d))
}
