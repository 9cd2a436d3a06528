// Package handlers provides HTTP request handlers for the review service.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/lendline/lendline-stack/common/httputil"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/models"
	"github.com/lendline/lendline-stack/review/internal/repository"
	"github.com/lendline/lendline-stack/review/internal/service"
)

const (
	resourceApplication = "loan_application"
	resourceDocument    = "document"
)

// Handler provides HTTP handlers for the review service
type Handler struct {
	svc    *service.Service
	actor  string
	logger *logging.Logger
}

// NewHandler creates a new Handler. actor names the officer when a request
// carries no actor header.
func NewHandler(svc *service.Service, actor string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, actor: actor, logger: logger}
}

// documentView is a document together with its decision history.
type documentView struct {
	*models.Document
	History []*repository.StatusChange `json:"history"`
}

// ApplicationHandler handles GET /api/v1/applications/{id} and
// POST /api/v1/applications/{id}/status
func (h *Handler) ApplicationHandler(w http.ResponseWriter, r *http.Request) {
	idStr, action := splitPath(r.URL.Path, "/api/v1/applications")
	id, err := httputil.ParseID(idStr)
	if err != nil {
		httputil.WriteJSONAPIValidationError(w, "Loan application ID must be a positive integer")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		detail, err := h.svc.GetApplication(r.Context(), id)
		if err != nil {
			h.writeError(w, r, "get loan application", resourceApplication, id, err)
			return
		}
		httputil.WriteJSONAPIResource(w, http.StatusOK, httputil.Resource(resourceApplication, id, detail))

	case action == "status" && r.Method == http.MethodPost:
		var req service.StatusRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteJSONAPIValidationError(w, err.Error())
			return
		}
		app, err := h.svc.UpdateApplicationStatus(r.Context(), id, req, httputil.Actor(r, h.actor))
		if err != nil {
			h.writeError(w, r, "update loan application status", resourceApplication, id, err)
			return
		}
		httputil.WriteJSONAPIResource(w, http.StatusOK, httputil.Resource(resourceApplication, app.ID, app))

	case action == "" || action == "status":
		httputil.WriteJSONAPIMethodNotAllowed(w)

	default:
		httputil.WriteJSONAPINotFoundError(w, "route", r.URL.Path)
	}
}

// DocumentHandler handles GET /api/v1/documents/{id} and
// POST /api/v1/documents/{id}/status
func (h *Handler) DocumentHandler(w http.ResponseWriter, r *http.Request) {
	idStr, action := splitPath(r.URL.Path, "/api/v1/documents")
	id, err := httputil.ParseID(idStr)
	if err != nil {
		httputil.WriteJSONAPIValidationError(w, "Document ID must be a positive integer")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		doc, history, err := h.svc.DocumentHistory(r.Context(), id)
		if err != nil {
			h.writeError(w, r, "get document", resourceDocument, id, err)
			return
		}
		if history == nil {
			history = []*repository.StatusChange{}
		}
		httputil.WriteJSONAPIResource(w, http.StatusOK,
			httputil.Resource(resourceDocument, doc.ID, documentView{Document: doc, History: history}))

	case action == "status" && r.Method == http.MethodPost:
		var req service.StatusRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteJSONAPIValidationError(w, err.Error())
			return
		}
		doc, err := h.svc.UpdateDocumentStatus(r.Context(), id, req, httputil.Actor(r, h.actor))
		if err != nil {
			h.writeError(w, r, "update document status", resourceDocument, id, err)
			return
		}
		httputil.WriteJSONAPIResource(w, http.StatusOK, httputil.Resource(resourceDocument, doc.ID, doc))

	case action == "" || action == "status":
		httputil.WriteJSONAPIMethodNotAllowed(w)

	default:
		httputil.WriteJSONAPINotFoundError(w, "route", r.URL.Path)
	}
}

// writeError maps service and repository errors onto JSON:API error responses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op, resourceType string, id int64, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		httputil.WriteJSONAPIValidationError(w, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		httputil.WriteJSONAPIConflictError(w, err.Error())
	case errors.Is(err, repository.ErrApplicationNotFound), errors.Is(err, repository.ErrDocumentNotFound):
		httputil.WriteJSONAPINotFoundError(w, resourceType, strconv.FormatInt(id, 10))
	default:
		h.logger.ErrorContext(r.Context(), "failed to "+op, "id", id, logging.Error(err))
		httputil.WriteJSONAPIInternalError(w, "failed to "+op)
	}
}

// splitPath returns the id segment after prefix and the optional action after it.
func splitPath(path, prefix string) (id, action string) {
	remaining := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	id, action, _ = strings.Cut(remaining, "/")
	return id, action
}
