package envelope

import "time"

// Events published by the router-core role and consumed by the
// model-registry role. Field sets follow original_source's
// src/modules/ipc/events/router_core_model_registry.rs.

func init() {
	register("router_core", "model_registry", "model_usage", func(p []byte) (Event, error) {
		return decodeStrict[ModelUsageEvent](p, "model_id", "request_id", "timestamp")
	})
	register("router_core", "model_registry", "model_health_check", func(p []byte) (Event, error) {
		return decodeStrict[ModelHealthCheckEvent](p, "model_id", "healthy", "timestamp")
	})
	register("router_core", "model_registry", "model_routing_decision", func(p []byte) (Event, error) {
		return decodeStrict[ModelRoutingDecisionEvent](p, "request_id", "selected_model_id", "timestamp")
	})
}

// ModelUsageEvent reports token/latency accounting for a single model call.
type ModelUsageEvent struct {
	ModelID      string            `json:"model_id"`
	RequestID    string            `json:"request_id"`
	UserID       *string           `json:"user_id,omitempty"`
	OrgID        *string           `json:"org_id,omitempty"`
	InputTokens  uint32            `json:"input_tokens"`
	OutputTokens uint32            `json:"output_tokens"`
	LatencyMs    uint64            `json:"latency_ms"`
	Timestamp    time.Time         `json:"timestamp"`
	Success      bool              `json:"success"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	Metadata     map[string]string `json:"metadata"`
}

func (ModelUsageEvent) EventType() string { return "model_usage" }

// ModelHealthCheckEvent reports the outcome of a liveness probe against a model.
type ModelHealthCheckEvent struct {
	ModelID      string            `json:"model_id"`
	Healthy      bool              `json:"healthy"`
	LatencyMs    uint64            `json:"latency_ms"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
	Details      map[string]string `json:"details"`
}

func (ModelHealthCheckEvent) EventType() string { return "model_health_check" }

// ModelRoutingDecisionEvent reports which model a request was routed to and why.
type ModelRoutingDecisionEvent struct {
	RequestID        string            `json:"request_id"`
	UserID           *string           `json:"user_id,omitempty"`
	OrgID            *string           `json:"org_id,omitempty"`
	SelectedModelID  string            `json:"selected_model_id"`
	RoutingStrategy  string            `json:"routing_strategy"`
	CandidateModelID []string          `json:"candidate_model_ids"`
	SelectionReason  string            `json:"selection_reason"`
	Timestamp        time.Time         `json:"timestamp"`
	Metadata         map[string]string `json:"metadata"`
}

func (ModelRoutingDecisionEvent) EventType() string { return "model_routing_decision" }
