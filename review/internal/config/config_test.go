package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8083, cfg.Server.Port)
	assert.Equal(t, "lendline_review", cfg.Database.Database)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, "review-service", cfg.Events.Actor)
}

func TestLoad_CORSFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
cors:
  allowed_origins: ["https://officers.lendline.example", "*.lendline.example"]
  max_age: 120
database:
  in_memory: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
	assert.Equal(t, 120, cfg.CORS.MaxAge)
	assert.True(t, cfg.Database.InMemory)
}
