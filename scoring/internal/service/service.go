// Package service answers score queries, reading through the score cache when one is configured.
package service

import (
	"context"
	"errors"

	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/metrics"
	"github.com/lendline/lendline-stack/common/models"
	"github.com/lendline/lendline-stack/scoring/internal/cache"
	"github.com/lendline/lendline-stack/scoring/internal/repository"
)

// ScoreCache is the read-through cache of immutable scores.
type ScoreCache interface {
	Get(ctx context.Context, applicationID int64) (*models.LoanScore, error)
	Set(ctx context.Context, score *models.LoanScore) error
}

// Service provides business logic for the scoring service
type Service struct {
	repo   repository.Repository
	cache  ScoreCache
	logger *logging.Logger
}

// NewService creates a new Service instance. cache may be nil.
func NewService(repo repository.Repository, c ScoreCache, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, cache: c, logger: logger}
}

// GetScore returns the score of an application. Cache failures fall back to the database.
func (s *Service) GetScore(ctx context.Context, applicationID int64) (*models.LoanScore, error) {
	if s.cache != nil {
		score, err := s.cache.Get(ctx, applicationID)
		switch {
		case err == nil:
			metrics.ScoreCacheLookups.WithLabelValues("hit").Inc()
			return score, nil
		case errors.Is(err, cache.ErrMiss):
			metrics.ScoreCacheLookups.WithLabelValues("miss").Inc()
		default:
			metrics.ScoreCacheLookups.WithLabelValues("error").Inc()
			s.logger.WarnContext(ctx, "score cache lookup failed", logging.ApplicationID(applicationID), logging.Error(err))
		}
	}

	score, err := s.repo.GetScore(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, score); err != nil {
			s.logger.WarnContext(ctx, "failed to cache score", logging.ApplicationID(applicationID), logging.Error(err))
		}
	}
	return score, nil
}

// ListScores returns a filtered page of scores straight from the database.
func (s *Service) ListScores(ctx context.Context, filter repository.ScoreFilter) ([]*models.LoanScore, int, error) {
	return s.repo.ListScores(ctx, filter)
}

