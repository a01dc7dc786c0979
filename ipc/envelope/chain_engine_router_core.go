package envelope

import "time"

// Events published by the chain-engine role and consumed by the
// router-core role. Field sets follow original_source's
// src/modules/ipc/events/chain_engine_router_core.rs.

func init() {
	register("chain_engine", "router_core", "chain_execution_completed", func(p []byte) (Event, error) {
		return decodeStrict[ChainExecutionCompletedEvent](p, "execution_id", "output", "timestamp")
	})
	register("chain_engine", "router_core", "chain_execution_failed", func(p []byte) (Event, error) {
		return decodeStrict[ChainExecutionFailedEvent](p, "execution_id", "error", "timestamp")
	})
	register("chain_engine", "router_core", "chain_step_completed", func(p []byte) (Event, error) {
		return decodeStrict[ChainStepCompletedEvent](p, "execution_id", "step_id", "timestamp")
	})
}

// ChainExecutionCompletedEvent reports a chain run finishing successfully.
type ChainExecutionCompletedEvent struct {
	ExecutionID     string            `json:"execution_id"`
	Output          string            `json:"output"`
	TotalTokens     uint32            `json:"total_tokens"`
	ExecutionTimeMs uint64            `json:"execution_time_ms"`
	Timestamp       time.Time         `json:"timestamp"`
	Metadata        map[string]string `json:"metadata"`
}

func (ChainExecutionCompletedEvent) EventType() string { return "chain_execution_completed" }

// ErrorDetails carries a structured failure reason.
type ErrorDetails struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChainExecutionFailedEvent reports a chain run terminating in failure.
type ChainExecutionFailedEvent struct {
	ExecutionID     string            `json:"execution_id"`
	Error           ErrorDetails      `json:"error"`
	ExecutionTimeMs uint64            `json:"execution_time_ms"`
	Timestamp       time.Time         `json:"timestamp"`
	Metadata        map[string]string `json:"metadata"`
}

func (ChainExecutionFailedEvent) EventType() string { return "chain_execution_failed" }

// ChainStepCompletedEvent reports a single step of a chain finishing.
type ChainStepCompletedEvent struct {
	ExecutionID string            `json:"execution_id"`
	StepID      string            `json:"step_id"`
	StepIndex   uint32            `json:"step_index"`
	Output      string            `json:"output"`
	Tokens      uint32            `json:"tokens"`
	Timestamp   time.Time         `json:"timestamp"`
	Metadata    map[string]string `json:"metadata"`
}

func (ChainStepCompletedEvent) EventType() string { return "chain_step_completed" }
