package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/lendline/lendline-stack/common/config"
	"github.com/lendline/lendline-stack/scoring/pkg/engine"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, "lendline_scoring", cfg.Database.Database)
	assert.Equal(t, common.BrokerNATS, cfg.Broker.Backend)

	w, err := cfg.EngineWeights()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultWeights(), w)
}

func TestLoad_InlineWeightsAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
broker:
  backend: memory
dlq:
  backend: none
scoring:
  weights:
    income_multiplier: 0.002
    grades:
      excellent: 800
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("SCORING_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)

	w, err := cfg.EngineWeights()
	require.NoError(t, err)
	assert.InDelta(t, 0.002, w.IncomeMultiplier, 1e-12)
	assert.Equal(t, 800, w.Grades.Excellent)
	assert.Equal(t, 650, w.Grades.Good, "unset keys keep their default")
	assert.Equal(t, 100, w.Employment["employed"])
}

func TestEngineWeights_File(t *testing.T) {
	weights := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(weights, []byte("term_penalty: -3\n"), 0o600))

	cfg := &Config{Scoring: ScoringConfig{WeightsFile: weights}}
	w, err := cfg.EngineWeights()
	require.NoError(t, err)
	assert.Equal(t, -3, w.TermPenalty)
	assert.Equal(t, 5, w.YearBonus)
}

func TestLoad_InvalidBroker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("broker:\n  backend: carrier-pigeon\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
