// Package handlers provides HTTP request handlers for the origination service.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/lendline/lendline-stack/common/httputil"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/origination/internal/repository"
	"github.com/lendline/lendline-stack/origination/internal/service"
)

const (
	resourceBorrower    = "borrower"
	resourceApplication = "loan_application"
	resourceDocument    = "document"
)

// Handler provides HTTP handlers for the origination service
type Handler struct {
	svc    *service.Service
	logger *logging.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(svc *service.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// writeError maps service and repository errors onto JSON:API error responses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrApplicationOwnership):
		httputil.WriteJSONAPIValidationError(w, err.Error())
	case errors.Is(err, repository.ErrDuplicateEmail):
		httputil.WriteJSONAPIConflictError(w, err.Error())
	case errors.Is(err, repository.ErrBorrowerNotFound):
		httputil.WriteJSONAPIError(w, http.StatusUnprocessableEntity, "borrower_not_found", "Unprocessable Entity", err.Error())
	case errors.Is(err, repository.ErrApplicationNotFound):
		httputil.WriteJSONAPIError(w, http.StatusUnprocessableEntity, "loan_application_not_found", "Unprocessable Entity", err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "failed to "+op, logging.Error(err))
		httputil.WriteJSONAPIInternalError(w, "failed to "+op)
	}
}

// writeGetError answers lookups by id: a missing entity is a 404.
func (h *Handler) writeGetError(w http.ResponseWriter, r *http.Request, resourceType string, id int64, notFound, err error) {
	if errors.Is(err, notFound) {
		httputil.WriteJSONAPINotFoundError(w, resourceType, strconv.FormatInt(id, 10))
		return
	}
	h.logger.ErrorContext(r.Context(), "failed to get "+resourceType, "id", id, logging.Error(err))
	httputil.WriteJSONAPIInternalError(w, "failed to get "+resourceType)
}

// parseListFilter reads pagination and the optional borrower_id,
// application_id and status filters.
func parseListFilter(r *http.Request) (repository.ListFilter, error) {
	q := r.URL.Query()
	p := httputil.ParsePagination(r, 50, 500)
	filter := repository.ListFilter{Page: p.Page, Limit: p.Limit, Status: q.Get("status")}

	if v := q.Get("borrower_id"); v != "" {
		id, err := httputil.ParseID(v)
		if err != nil {
			return filter, errors.New("borrower_id must be a positive integer")
		}
		filter.BorrowerID = id
	}
	if v := q.Get("application_id"); v != "" {
		id, err := httputil.ParseID(v)
		if err != nil {
			return filter, errors.New("application_id must be a positive integer")
		}
		filter.ApplicationID = id
	}
	return filter, nil
}

func pagination(f repository.ListFilter, total int) *httputil.Pagination {
	return &httputil.Pagination{Page: f.Page, Limit: f.Limit, Total: total}
}
