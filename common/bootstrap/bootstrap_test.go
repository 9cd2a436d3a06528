package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendline/lendline-stack/common/config"
	"github.com/lendline/lendline-stack/common/dlq"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/messaging/memory"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func memoryInfra(t *testing.T) config.Infra {
	return config.Infra{
		Server:   config.ServerConfig{Port: 8080},
		Broker:   config.BrokerConfig{Backend: config.BrokerMemory},
		Channels: config.DefaultChannels(),
		DLQ:      config.DLQConfig{Backend: config.DLQFile, BasePath: t.TempDir()},
	}
}

func TestBroker_Memory(t *testing.T) {
	client, err := Broker(context.Background(), memoryInfra(t), "scoring", logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &memory.Broker{}, client)
	assert.True(t, client.IsConnected())
}

func TestBroker_Unknown(t *testing.T) {
	infra := memoryInfra(t)
	infra.Broker.Backend = "rabbit"
	_, err := Broker(context.Background(), infra, "scoring", logging.Discard())
	assert.Error(t, err)
}

func TestDeadLetters(t *testing.T) {
	infra := memoryInfra(t)
	broker := memory.NewBroker()

	store, err := DeadLetters(context.Background(), infra, "review", broker, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &dlq.FileQueue{}, store)

	infra.DLQ.Backend = config.DLQNone
	store, err = DeadLetters(context.Background(), infra, "review", broker, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, dlq.Nop{}, store)

	infra.DLQ.Backend = config.DLQJetStream
	_, err = DeadLetters(context.Background(), infra, "review", broker, logging.Discard())
	assert.Error(t, err, "jetstream needs a nats client")
}

func TestHealthHandler(t *testing.T) {
	broker := memory.NewBroker()

	w := httptest.NewRecorder()
	HealthHandler("scoring", broker, pingFunc(func(context.Context) error { return nil }))(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Meta HealthResponse `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Meta.Status)
	assert.True(t, body.Meta.Broker.Connected)

	w = httptest.NewRecorder()
	HealthHandler("scoring", broker, pingFunc(func(context.Context) error { return errors.New("conn refused") }))(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, broker.Close())
	w = httptest.NewRecorder()
	HealthHandler("scoring", broker, nil)(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServe_StopsOnCancel(t *testing.T) {
	srv := NewServer(config.ServerConfig{Port: 0}, http.NotFoundHandler())
	srv.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, Serve(ctx, srv, logging.Discard()))
}
