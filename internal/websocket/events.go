package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	// Inbound, accepted from connected clients.
	EventJoinConversation  EventType = "join_conversation"
	EventLeaveConversation EventType = "leave_conversation"
	EventJoinConversations EventType = "join_conversations"
	EventTypingStart       EventType = "typing_start"
	EventTypingStop        EventType = "typing_stop"

	// Outbound.
	EventUserTyping        EventType = "user_typing"
	EventUserStoppedTyping EventType = "user_stopped_typing"

	// Keepalive.
	EventPing EventType = "ping"
	EventPong EventType = "pong"
)

// Event is the wire frame exchanged over a live channel.
type Event struct {
	Type           EventType       `json:"type"`
	ConversationID *uuid.UUID      `json:"conversation_id,omitempty"`
	UserID         uuid.UUID       `json:"user_id,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// TypingEvent is the payload of user_typing / user_stopped_typing.
// Transient: never persisted, at-most-once per subscriber.
type TypingEvent struct {
	UserID         uuid.UUID `json:"user_id"`
	UserName       string    `json:"user_name,omitempty"`
	ConversationID uuid.UUID `json:"conversation_id"`
}
