package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/lendline/lendline-stack/common/models"
)

// ScoringClient reads computed loan scores.
type ScoringClient struct {
	base
}

// NewScoringClient creates a ScoringClient pointing at baseURL.
func NewScoringClient(baseURL string) *ScoringClient {
	return &ScoringClient{base: newBase(baseURL)}
}

// ScoreFilter narrows ListScores. Zero values are left out of the query.
type ScoreFilter struct {
	BorrowerID int64
	Grade      string
	Risk       string
	MinScore   *int
	MaxScore   *int
	Page       int
	Limit      int
}

func (f ScoreFilter) query() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", fmt.Sprint(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", fmt.Sprint(f.Limit))
	}
	if f.BorrowerID > 0 {
		q.Set("borrower_id", fmt.Sprint(f.BorrowerID))
	}
	if f.Grade != "" {
		q.Set("grade", f.Grade)
	}
	if f.Risk != "" {
		q.Set("risk", f.Risk)
	}
	if f.MinScore != nil {
		q.Set("min_score", fmt.Sprint(*f.MinScore))
	}
	if f.MaxScore != nil {
		q.Set("max_score", fmt.Sprint(*f.MaxScore))
	}
	return q
}

// GetScore returns the score of one application.
func (c *ScoringClient) GetScore(ctx context.Context, applicationID int64) (*models.LoanScore, error) {
	var s models.LoanScore
	if err := c.getResource(ctx, fmt.Sprintf("/api/v1/scores/%d", applicationID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScores returns one page of scores, newest first.
func (c *ScoringClient) ListScores(ctx context.Context, f ScoreFilter) ([]*models.LoanScore, Pagination, error) {
	path := "/api/v1/scores"
	if q := f.query().Encode(); q != "" {
		path += "?" + q
	}

	var scores []*models.LoanScore
	p, err := c.list(ctx, path, func(raw json.RawMessage) error {
		var s models.LoanScore
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		scores = append(scores, &s)
		return nil
	})
	return scores, p, err
}
