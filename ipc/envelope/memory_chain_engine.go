package envelope

import "time"

// Events published by the memory role and consumed by the chain-engine
// role. Field sets follow original_source's
// src/modules/ipc/events/memory_chain_engine.rs.

func init() {
	register("memory", "chain_engine", "conversation_updated", func(p []byte) (Event, error) {
		return decodeStrict[ConversationUpdatedEvent](p, "conversation_id", "new_message", "timestamp")
	})
	register("memory", "chain_engine", "conversation_history_retrieved", func(p []byte) (Event, error) {
		return decodeStrict[ConversationHistoryRetrievedEvent](p, "conversation_id", "messages", "timestamp")
	})
}

// ConversationMessage is a single turn in a conversation history.
type ConversationMessage struct {
	ID         string            `json:"id"`
	Role       string            `json:"role"`
	Content    string            `json:"content"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata"`
	ParentID   *string           `json:"parent_id,omitempty"`
	TokenCount *uint32           `json:"token_count,omitempty"`
}

// ConversationUpdatedEvent reports a new message appended to a conversation.
type ConversationUpdatedEvent struct {
	ConversationID string              `json:"conversation_id"`
	NewMessage     ConversationMessage `json:"new_message"`
	MessageCount   uint32              `json:"message_count"`
	Timestamp      time.Time           `json:"timestamp"`
	UserID         *string             `json:"user_id,omitempty"`
	Metadata       map[string]string   `json:"metadata"`
}

func (ConversationUpdatedEvent) EventType() string { return "conversation_updated" }

// ConversationHistoryRetrievedEvent reports a conversation history fetch.
type ConversationHistoryRetrievedEvent struct {
	ConversationID string                `json:"conversation_id"`
	Messages       []ConversationMessage `json:"messages"`
	TotalTokens    uint32                `json:"total_tokens"`
	Timestamp      time.Time             `json:"timestamp"`
	UserID         *string               `json:"user_id,omitempty"`
	Format         string                `json:"format"`
	Metadata       map[string]string     `json:"metadata"`
}

func (ConversationHistoryRetrievedEvent) EventType() string {
	return "conversation_history_retrieved"
}
