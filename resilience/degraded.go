package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/intellirouter/fabric/internal/metrics"
)

// DegradedModeKind discriminates the degraded-mode selector variants.
type DegradedModeKind int

const (
	// FailFast returns a dedicated "degraded mode" error.
	FailFast DegradedModeKind = iota
	// StaticResponse synthesizes a canned response.
	StaticResponse
	// DefaultUpstream dispatches the original request to a pinned default
	// upstream, bypassing the retry orchestrator.
	DefaultUpstream
)

// DegradedMode selects the degraded-service strategy.
type DegradedMode struct {
	Kind DegradedModeKind

	// StaticResponse
	Text string

	// DefaultUpstream
	UpstreamID string
}

// Response mirrors a normal success response shape, marked as a fallback.
type Response struct {
	Body              string
	Model             string
	Timestamp         time.Time
	FinishReason      string
	IsFallback        bool
	SelectionCriteria string
}

// Upstream is the minimal connector surface the DefaultUpstream strategy
// needs from the model registry: look the id up and dispatch the original
// request to it.
type Upstream interface {
	HasConnector() bool
	Dispatch(ctx context.Context, request any) (Response, error)
}

// Registry resolves upstream ids to Upstream connectors.
type Registry interface {
	Lookup(id string) (Upstream, bool)
}

// Handler implements the degraded-service handler (C5). It is invoked by
// higher layers only after the orchestrator reports breaker-open or
// exhausted retries; it never intercepts a live call.
type Handler struct {
	service  string
	mode     DegradedMode
	registry Registry
	logger   *zap.Logger

	// limiter bounds the rate of StaticResponse fallbacks so a flapping
	// breaker cannot serve unlimited canned responses to a caller retrying
	// in a tight loop. Disabled (nil) by default.
	limiter *rate.Limiter

	metrics *metrics.Collector
}

// SetMetrics attaches a metrics.Collector so every Handle activation is
// observed on the fabric's Prometheus surface. Optional; nil is a no-op.
func (h *Handler) SetMetrics(m *metrics.Collector) { h.metrics = m }

// NewHandler builds a degraded-service Handler.
func NewHandler(service string, mode DegradedMode, registry Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, mode: mode, registry: registry, logger: logger}
}

// WithRateLimit enables token-bucket shedding of the StaticResponse path at
// rps requests/sec with the given burst. A zero or negative rps disables
// limiting (the default).
func (h *Handler) WithRateLimit(rps float64, burst int) *Handler {
	if rps > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return h
}

// Handle produces a degraded-mode response for request.
func (h *Handler) Handle(ctx context.Context, request any) (Response, error) {
	switch h.mode.Kind {
	case FailFast:
		h.logger.Warn("degraded mode: fail-fast", zap.String("service", h.service))
		if h.metrics != nil {
			h.metrics.RecordDegradedActivation(h.service, "fail_fast")
		}
		return Response{}, ErrDegradedMode(h.service)

	case StaticResponse:
		if h.limiter != nil && !h.limiter.Allow() {
			return Response{}, New(KindInternal, h.service, "degraded mode: static response rate limit exceeded")
		}
		h.logger.Warn("degraded mode: static response", zap.String("service", h.service))
		if h.metrics != nil {
			h.metrics.RecordDegradedActivation(h.service, "static_response")
		}
		return Response{
			Body:              h.mode.Text,
			Model:             "degraded-mode",
			Timestamp:         time.Now(),
			FinishReason:      "degraded_mode",
			IsFallback:        true,
			SelectionCriteria: "degraded_mode",
		}, nil

	case DefaultUpstream:
		upstream, ok := h.registry.Lookup(h.mode.UpstreamID)
		if !ok || !upstream.HasConnector() {
			h.logger.Warn("degraded mode: no suitable model",
				zap.String("service", h.service), zap.String("upstream", h.mode.UpstreamID))
			return Response{}, ErrNoSuitableModel(h.service)
		}
		h.logger.Warn("degraded mode: dispatching to default upstream",
			zap.String("service", h.service), zap.String("upstream", h.mode.UpstreamID))
		if h.metrics != nil {
			h.metrics.RecordDegradedActivation(h.service, "default_upstream")
		}
		// Dispatched directly, not through an Orchestrator: retrying here
		// would risk unbounded recursive fallback chains since this path
		// was itself only reached via exhausted retries or an open
		// breaker. See DESIGN.md's resolved Open Question.
		resp, err := upstream.Dispatch(ctx, request)
		if err != nil {
			return Response{}, err
		}
		resp.IsFallback = true
		resp.SelectionCriteria = "degraded_mode"
		return resp, nil

	default:
		return Response{}, ErrDegradedMode(h.service)
	}
}
