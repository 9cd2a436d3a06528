package handlers

import (
	"net/http"

	"github.com/lendline/lendline-stack/common/httputil"
	"github.com/lendline/lendline-stack/origination/internal/repository"
	"github.com/lendline/lendline-stack/origination/internal/service"
)

// BorrowersHandler handles GET/POST /api/v1/borrowers
func (h *Handler) BorrowersHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listBorrowers(w, r)
	case http.MethodPost:
		h.createBorrower(w, r)
	default:
		httputil.WriteJSONAPIMethodNotAllowed(w)
	}
}

func (h *Handler) createBorrower(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBorrowerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteJSONAPIValidationError(w, err.Error())
		return
	}

	b, err := h.svc.CreateBorrower(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "create borrower", err)
		return
	}
	httputil.WriteJSONAPIResource(w, http.StatusCreated, httputil.Resource(resourceBorrower, b.ID, b))
}

func (h *Handler) listBorrowers(w http.ResponseWriter, r *http.Request) {
	filter, err := parseListFilter(r)
	if err != nil {
		httputil.WriteJSONAPIValidationError(w, err.Error())
		return
	}

	borrowers, total, err := h.svc.ListBorrowers(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, "list borrowers", err)
		return
	}

	data := make([]httputil.JSONAPIResource, 0, len(borrowers))
	for _, b := range borrowers {
		data = append(data, httputil.Resource(resourceBorrower, b.ID, b))
	}
	httputil.WriteJSONAPICollection(w, http.StatusOK, data, pagination(filter, total))
}

// BorrowerHandler handles GET /api/v1/borrowers/{id}
func (h *Handler) BorrowerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONAPIMethodNotAllowed(w)
		return
	}

	id, err := httputil.ParseID(httputil.PathID(r.URL.Path, "/api/v1/borrowers"))
	if err != nil {
		httputil.WriteJSONAPIValidationError(w, "Borrower ID must be a positive integer")
		return
	}

	b, err := h.svc.GetBorrower(r.Context(), id)
	if err != nil {
		h.writeGetError(w, r, resourceBorrower, id, repository.ErrBorrowerNotFound, err)
		return
	}
	httputil.WriteJSONAPIResource(w, http.StatusOK, httputil.Resource(resourceBorrower, b.ID, b))
}

