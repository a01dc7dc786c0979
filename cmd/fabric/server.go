package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/intellirouter/fabric/config"
	"github.com/intellirouter/fabric/internal/metrics"
	"github.com/intellirouter/fabric/internal/server"
	"github.com/intellirouter/fabric/ipc/broker"
	"github.com/intellirouter/fabric/ipc/proxy"
	"github.com/intellirouter/fabric/ipc/security"
)

// Server wires together the fabric's own infrastructure: the authenticated
// broker client, the metrics collector, the RPC family health-check
// manager, and the HTTP surface exposing /metrics and /healthz.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	authenticator *security.Authenticator
	rdb           redis.UniversalClient
	broker        *broker.Client
	collector     *metrics.Collector
	proxies       *proxy.Manager

	httpManager *server.Manager
}

// NewServer builds a Server's dependency graph without starting anything.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	authenticator := security.NewAuthenticator(security.Config{
		Secret:     cfg.Token.Secret,
		Issuer:     cfg.Token.Issuer,
		Audience:   cfg.Token.Audience,
		Expiration: cfg.Token.Expiration,
	})

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Broker.Addr,
		Password:     cfg.Broker.Password,
		DB:           cfg.Broker.DB,
		PoolSize:     cfg.Broker.PoolSize,
		MinIdleConns: cfg.Broker.MinIdleConns,
	})

	brokerClient := broker.NewClient(rdb, authenticator, "fabric", []string{"fabric"}, logger)
	collector := metrics.NewCollector("intellirouter_fabric", logger)
	brokerClient.SetMetrics(collector)
	proxies := proxy.NewManager()

	return &Server{
		cfg:           cfg,
		logger:        logger,
		authenticator: authenticator,
		rdb:           rdb,
		broker:        brokerClient,
		collector:     collector,
		proxies:       proxies,
	}, nil
}

// RegisterFamily adds an RPC family's resilient proxy to the health-check
// manager. Callers embedding the fabric register each family's proxy after
// NewServer and before Start.
func (s *Server) RegisterFamily(p proxy.Checkable) {
	s.proxies.Register(p)
}

// Metrics returns the fabric's shared Collector so callers embedding this
// server can wire it into their own RPC family proxies via SetMetrics
// before calling RegisterFamily.
func (s *Server) Metrics() *metrics.Collector {
	return s.collector
}

// Start brings up the diagnostics HTTP server (non-blocking).
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.collector.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.handleHealthz)

	httpCfg := server.DefaultConfig()
	httpCfg.Addr = fmt.Sprintf(":%d", s.cfg.Server.MetricsPort)
	httpCfg.ShutdownTimeout = s.cfg.Server.ShutdownTimeout

	s.httpManager = server.NewManager(mux, httpCfg, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return fmt.Errorf("start diagnostics server: %w", err)
	}

	s.logger.Info("diagnostics server listening", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// WaitForShutdown blocks until SIGINT/SIGTERM or a server error, then
// shuts down gracefully.
func (s *Server) WaitForShutdown() {
	s.httpManager.WaitForShutdown()
	if err := s.rdb.Close(); err != nil {
		s.logger.Warn("error closing broker connection", zap.Error(err))
	}
}

// handleHealthz fans out a liveness check across every registered RPC
// family and reports broker reachability. It never fails the process:
// an unhealthy family is a normal operating condition this endpoint
// reports, not an error that should crash the fabric.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	results := s.proxies.HealthCheckAll(ctx, "healthz")
	for _, res := range results {
		s.collector.RecordProxyHealthy(res.Family, res.Healthy)
	}

	brokerOK := s.rdb.Ping(ctx).Err() == nil

	status := http.StatusOK
	if !brokerOK || !proxy.AllHealthy(results) {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"broker_reachable": brokerOK,
		"families":         results,
	})
}
