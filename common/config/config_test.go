package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServiceConfig struct {
	Infra `mapstructure:",squash"`
	Extra string `mapstructure:"extra"`
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetInfraDefaults(v, "scoring", 8082)

	var cfg testServiceConfig
	require.NoError(t, Load(v, "LENDLINE_TEST_DEFAULTS", "", &cfg))

	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "lendline_scoring", cfg.Database.Database)
	assert.Equal(t, BrokerNATS, cfg.Broker.Backend)
	assert.Equal(t, DefaultChannels(), cfg.Channels)
	assert.Equal(t, DLQJetStream, cfg.DLQ.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9001
broker:
  backend: kafka
  kafka:
    brokers: ["kafka-1:9092", "kafka-2:9092"]
channels:
  loan_status: lending.loan-status
dlq:
  backend: file
  base_path: /tmp/dlq
extra: hello
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("LENDLINE_TEST_FILE_LOGGING_LEVEL", "debug")

	v := viper.New()
	SetInfraDefaults(v, "origination", 8081)

	var cfg testServiceConfig
	require.NoError(t, Load(v, "LENDLINE_TEST_FILE", path, &cfg))

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, BrokerKafka, cfg.Broker.Backend)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Broker.Kafka.Brokers)
	assert.Equal(t, "lending.loan-status", cfg.Channels.LoanStatus)
	assert.Equal(t, "borrower-created", cfg.Channels.BorrowerCreated)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "hello", cfg.Extra)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	v := viper.New()
	var cfg testServiceConfig
	err := Load(v, "LENDLINE_TEST_MISSING", filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	assert.Error(t, err)
}

func TestInfra_Validate(t *testing.T) {
	base := func() Infra {
		v := viper.New()
		SetInfraDefaults(v, "review", 8083)
		var cfg testServiceConfig
		require.NoError(t, Load(v, "LENDLINE_TEST_VALIDATE", "", &cfg))
		return cfg.Infra
	}

	tests := []struct {
		name    string
		mutate  func(*Infra)
		wantErr bool
	}{
		{name: "defaults valid", mutate: func(*Infra) {}},
		{name: "unknown broker", mutate: func(i *Infra) { i.Broker.Backend = "rabbit" }, wantErr: true},
		{name: "jetstream dlq needs nats", mutate: func(i *Infra) { i.Broker.Backend = BrokerMemory }, wantErr: true},
		{name: "memory with file dlq", mutate: func(i *Infra) { i.Broker.Backend = BrokerMemory; i.DLQ.Backend = DLQFile }},
		{name: "empty channel", mutate: func(i *Infra) { i.Channels.DocumentsStatus = "" }, wantErr: true},
		{name: "bad port", mutate: func(i *Infra) { i.Server.Port = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPostgresConfig_DSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, Database: "lendline_scoring", User: "svc", Password: "p@ss", SSLMode: "disable"}
	assert.Equal(t, "postgres://svc:p%40ss@db:5432/lendline_scoring?sslmode=disable", p.DSN())
}

func TestReadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte("income_multiplier: 0.002\n"), 0o600))

	var out struct {
		IncomeMultiplier float64 `yaml:"income_multiplier"`
	}
	require.NoError(t, ReadYAML(path, &out))
	assert.InDelta(t, 0.002, out.IncomeMultiplier, 1e-12)

	assert.Error(t, ReadYAML(filepath.Join(t.TempDir(), "missing.yaml"), &out))
}

func TestCLIConfig_Resolve(t *testing.T) {
	t.Setenv("LENDCTL_CONFIG_DIR", t.TempDir())

	cfg, err := LoadCLI()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8082", cfg.Resolve("").ScoringURL)

	require.NoError(t, cfg.SetProfile("staging", &CLIProfile{ScoringURL: "https://scoring.staging"}))

	reloaded, err := LoadCLI()
	require.NoError(t, err)
	assert.Equal(t, "staging", reloaded.CurrentProfile)

	resolved := reloaded.Resolve("")
	assert.Equal(t, "https://scoring.staging", resolved.ScoringURL)
	assert.Equal(t, "http://localhost:8081", resolved.OriginationURL)

	_, err = reloaded.GetProfile("prod")
	assert.Error(t, err)
}
