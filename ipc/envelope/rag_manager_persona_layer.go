package envelope

import "time"

// Events published by the rag-manager role and consumed by the
// persona-layer role. Field sets follow original_source's
// src/modules/ipc/events/rag_manager_persona_layer.rs.

func init() {
	register("rag_manager", "persona_layer", "document_indexed", func(p []byte) (Event, error) {
		return decodeStrict[DocumentIndexedEvent](p, "document_id", "document_name", "timestamp")
	})
	register("rag_manager", "persona_layer", "document_retrieval", func(p []byte) (Event, error) {
		return decodeStrict[DocumentRetrievalEvent](p, "query", "document_ids", "timestamp")
	})
	register("rag_manager", "persona_layer", "context_augmentation", func(p []byte) (Event, error) {
		return decodeStrict[ContextAugmentationEvent](p, "original_request", "augmented_request", "timestamp")
	})
}

// DocumentIndexedEvent reports a document finishing ingestion into the
// retrieval index.
type DocumentIndexedEvent struct {
	DocumentID   string            `json:"document_id"`
	DocumentName string            `json:"document_name"`
	ChunkCount   uint32            `json:"chunk_count"`
	Timestamp    time.Time         `json:"timestamp"`
	Metadata     map[string]string `json:"metadata"`
}

func (DocumentIndexedEvent) EventType() string { return "document_indexed" }

// DocumentRetrievalEvent reports a similarity search over the index.
type DocumentRetrievalEvent struct {
	Query       string            `json:"query"`
	DocumentIDs []string          `json:"document_ids"`
	Scores      []float32         `json:"scores"`
	Timestamp   time.Time         `json:"timestamp"`
	UserID      *string           `json:"user_id,omitempty"`
	Metadata    map[string]string `json:"metadata"`
}

func (DocumentRetrievalEvent) EventType() string { return "document_retrieval" }

// ContextAugmentationEvent reports a request rewritten with retrieved context.
type ContextAugmentationEvent struct {
	OriginalRequest  string            `json:"original_request"`
	AugmentedRequest string            `json:"augmented_request"`
	DocumentIDs      []string          `json:"document_ids"`
	Timestamp        time.Time         `json:"timestamp"`
	UserID           *string           `json:"user_id,omitempty"`
	Metadata         map[string]string `json:"metadata"`
}

func (ContextAugmentationEvent) EventType() string { return "context_augmentation" }
