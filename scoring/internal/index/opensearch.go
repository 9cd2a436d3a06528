// Package index mirrors committed loan scores into OpenSearch for officer dashboards.
// Indexing is best effort: the database stays the source of truth.
package index

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/lendline/lendline-stack/common/config"
	"github.com/lendline/lendline-stack/common/models"
)

// scoreMapping keeps grades and risks as exact-match keywords.
const scoreMapping = `{
  "mappings": {
    "properties": {
      "application_id":       {"type": "long"},
      "borrower_id":          {"type": "long"},
      "total_score":          {"type": "long"},
      "grade":                {"type": "keyword"},
      "risk":                 {"type": "keyword"},
      "debt_to_income_ratio": {"type": "double"},
      "rationale":            {"type": "text"},
      "calculated_at":        {"type": "date"}
    }
  }
}`

// ScoreIndex writes score documents keyed by application id.
type ScoreIndex struct {
	client *opensearch.Client
	index  string
}

// New creates a client from cfg and checks that the cluster answers.
func New(cfg config.OpenSearchConfig) (*ScoreIndex, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.Insecure, //nolint:gosec // self-signed dev clusters
			},
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: httpClient.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	// Test connection
	info, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to ping opensearch: %w", err)
	}
	defer info.Body.Close()

	if info.IsError() {
		return nil, fmt.Errorf("opensearch returned error: %s", info.Status())
	}

	return &ScoreIndex{client: client, index: cfg.Index}, nil
}

// EnsureIndex creates the score index with its mapping unless it already exists.
func (s *ScoreIndex) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", s.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader([]byte(scoreMapping))),
	)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("opensearch error: %s - %s", res.Status(), string(body))
	}
	return nil
}

// IndexScore writes score under its application id, so re-indexing the same
// score overwrites the same document.
func (s *ScoreIndex) IndexScore(ctx context.Context, score *models.LoanScore) error {
	body, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("failed to marshal score: %w", err)
	}

	res, err := s.client.Index(s.index, bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(strconv.FormatInt(score.ApplicationID, 10)),
	)
	if err != nil {
		return fmt.Errorf("failed to index score: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("opensearch error: %s - %s", res.Status(), string(body))
	}
	return nil
}
