package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/intellirouter/fabric/config"
	"github.com/intellirouter/fabric/ipc/proxy"
)

type fakeCheckable struct {
	family  string
	healthy bool
	err     error
}

func (f fakeCheckable) Family() string { return f.family }
func (f fakeCheckable) HealthCheck(ctx context.Context, req proxy.Request) (bool, error) {
	return f.healthy, f.err
}

func newTestServer(t *testing.T, redisAddr string) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Broker.Addr = redisAddr
	cfg.Token.Secret = "test-secret"

	srv, err := NewServer(cfg, zap.NewNop())
	require.NoError(t, err)
	return srv
}

func TestServer_HandleHealthz_AllHealthy(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newTestServer(t, mr.Addr())
	srv.RegisterFamily(fakeCheckable{family: "chain-engine", healthy: true})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.handleHealthz(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_HandleHealthz_UnhealthyFamily(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newTestServer(t, mr.Addr())
	srv.RegisterFamily(fakeCheckable{family: "memory", healthy: false})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.handleHealthz(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_HandleHealthz_BrokerUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newTestServer(t, mr.Addr())
	mr.Close()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.handleHealthz(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewServer_BuildsDependencyGraph(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newTestServer(t, mr.Addr())

	assert.NotNil(t, srv.authenticator)
	assert.NotNil(t, srv.rdb)
	assert.NotNil(t, srv.broker)
	assert.NotNil(t, srv.collector)
	assert.NotNil(t, srv.proxies)
}

func TestInitLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		cfg := config.LogConfig{Level: level, Format: "json", OutputPaths: []string{"stdout"}}
		logger := initLogger(cfg)
		assert.NotNil(t, logger)
	}
}

func TestInitLogger_ConsoleFormat(t *testing.T) {
	cfg := config.LogConfig{Level: "info", Format: "console", OutputPaths: []string{"stdout"}}
	logger := initLogger(cfg)
	assert.NotNil(t, logger)
}
