// Package handlers provides HTTP request handlers for the scoring service.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/lendline/lendline-stack/common/httputil"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/models"
	"github.com/lendline/lendline-stack/scoring/internal/repository"
	"github.com/lendline/lendline-stack/scoring/internal/service"
)

const resourceScore = "loan_score"

// Handler provides HTTP handlers for the scoring service
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

// ScoresHandler handles GET /api/v1/scores
func (h *Handler) ScoresHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONAPIMethodNotAllowed(w)
		return
	}

	filter, err := parseScoreFilter(r)
	if err != nil {
		httputil.WriteJSONAPIValidationError(w, err.Error())
		return
	}

	scores, total, err := h.svc.ListScores(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list scores", logging.Error(err))
		httputil.WriteJSONAPIInternalError(w, "failed to list scores")
		return
	}

	data := make([]httputil.JSONAPIResource, 0, len(scores))
	for _, s := range scores {
		data = append(data, httputil.Resource(resourceScore, s.ApplicationID, s))
	}
	httputil.WriteJSONAPICollection(w, http.StatusOK, data, &httputil.Pagination{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// ScoreHandler handles GET /api/v1/scores/{applicationId}
func (h *Handler) ScoreHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteJSONAPIMethodNotAllowed(w)
		return
	}

	raw := httputil.PathID(r.URL.Path, "/api/v1/scores")
	id, err := httputil.ParseID(raw)
	if err != nil {
		httputil.WriteJSONAPIValidationError(w, "Application ID must be a positive integer")
		return
	}

	score, err := h.svc.GetScore(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrScoreNotFound) {
			httputil.WriteJSONAPINotFoundError(w, resourceScore, raw)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to get score", logging.ApplicationID(id), logging.Error(err))
		httputil.WriteJSONAPIInternalError(w, "failed to get score")
		return
	}

	httputil.WriteJSONAPIResource(w, http.StatusOK, httputil.Resource(resourceScore, score.ApplicationID, score))
}

func parseScoreFilter(r *http.Request) (repository.ScoreFilter, error) {
	q := r.URL.Query()
	p := httputil.ParsePagination(r, 50, 500)
	filter := repository.ScoreFilter{Page: p.Page, Limit: p.Limit}

	if v := q.Get("borrower_id"); v != "" {
		id, err := httputil.ParseID(v)
		if err != nil {
			return filter, errors.New("borrower_id must be a positive integer")
		}
		filter.BorrowerID = id
	}
	if v := q.Get("grade"); v != "" {
		g, err := models.ParseGrade(v)
		if err != nil {
			return filter, err
		}
		filter.Grade = g
	}
	if v := q.Get("risk"); v != "" {
		rk, err := models.ParseRisk(v)
		if err != nil {
			return filter, err
		}
		filter.Risk = rk
	}
	for _, bound := range []struct {
		name string
		dst  **int
	}{
		{"min_score", &filter.MinScore},
		{"max_score", &filter.MaxScore},
	} {
		v := q.Get(bound.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, errors.New(bound.name + " must be an integer")
		}
		*bound.dst = &n
	}
	if filter.MinScore != nil && filter.MaxScore != nil && *filter.MinScore > *filter.MaxScore {
		return filter, errors.New("min_score must not exceed max_score")
	}
	return filter, nil
}
