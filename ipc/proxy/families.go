package proxy

import (
	"go.uber.org/zap"

	"github.com/intellirouter/fabric/resilience"
)

// The five RPC families mirror the edges named by the domain event
// families in ipc/envelope: chain-engine, memory, persona, RAG, and
// model-registry each expose a pluggable client satisfying Capability,
// wrapped by a family-specific Resilient specialization so callers get a
// concrete type rather than threading the generic parameter through their
// own code.

// ChainEngineClient is the pluggable transport for the chain-engine RPC
// family (chain execution, step dispatch).
type ChainEngineClient interface {
	Capability
}

// ChainEngineProxy is a resilient proxy over a ChainEngineClient.
type ChainEngineProxy = Resilient[ChainEngineClient]

// NewChainEngineProxy builds a ChainEngineProxy.
func NewChainEngineProxy(inner ChainEngineClient, breaker *resilience.Breaker, policy resilience.Policy, retryable map[resilience.Category]bool, logger *zap.Logger) *ChainEngineProxy {
	return NewResilient[ChainEngineClient]("chain-engine", inner, breaker, policy, retryable, logger)
}

// MemoryClient is the pluggable transport for the memory RPC family
// (conversation storage and retrieval).
type MemoryClient interface {
	Capability
}

// MemoryProxy is a resilient proxy over a MemoryClient.
type MemoryProxy = Resilient[MemoryClient]

// NewMemoryProxy builds a MemoryProxy.
func NewMemoryProxy(inner MemoryClient, breaker *resilience.Breaker, policy resilience.Policy, retryable map[resilience.Category]bool, logger *zap.Logger) *MemoryProxy {
	return NewResilient[MemoryClient]("memory", inner, breaker, policy, retryable, logger)
}

// PersonaClient is the pluggable transport for the persona-layer RPC
// family (prompt assembly and persona selection).
type PersonaClient interface {
	Capability
}

// PersonaProxy is a resilient proxy over a PersonaClient.
type PersonaProxy = Resilient[PersonaClient]

// NewPersonaProxy builds a PersonaProxy.
func NewPersonaProxy(inner PersonaClient, breaker *resilience.Breaker, policy resilience.Policy, retryable map[resilience.Category]bool, logger *zap.Logger) *PersonaProxy {
	return NewResilient[PersonaClient]("persona", inner, breaker, policy, retryable, logger)
}

// RAGClient is the pluggable transport for the RAG-manager RPC family
// (document indexing and retrieval).
type RAGClient interface {
	Capability
}

// RAGProxy is a resilient proxy over a RAGClient.
type RAGProxy = Resilient[RAGClient]

// NewRAGProxy builds a RAGProxy.
func NewRAGProxy(inner RAGClient, breaker *resilience.Breaker, policy resilience.Policy, retryable map[resilience.Category]bool, logger *zap.Logger) *RAGProxy {
	return NewResilient[RAGClient]("rag", inner, breaker, policy, retryable, logger)
}

// ModelRegistryClient is the pluggable transport for the model-registry RPC
// family (model usage accounting, health checks, routing decisions).
type ModelRegistryClient interface {
	Capability
	Streamer
}

// ModelRegistryProxy is a resilient proxy over a ModelRegistryClient.
type ModelRegistryProxy = Resilient[ModelRegistryClient]

// NewModelRegistryProxy builds a ModelRegistryProxy. Model registry is the
// one family that supports streaming (live usage/health event feeds), so
// its client additionally satisfies Streamer.
func NewModelRegistryProxy(inner ModelRegistryClient, breaker *resilience.Breaker, policy resilience.Policy, retryable map[resilience.Category]bool, logger *zap.Logger) *ModelRegistryProxy {
	return NewResilient[ModelRegistryClient]("model-registry", inner, breaker, policy, retryable, logger)
}
