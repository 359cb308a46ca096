package dto

import (
	"time"

	"github.com/google/uuid"
)

// SendMessageRequest carries a message intent: exactly one of
// ConversationID / ReceiverID must be set.
type SendMessageRequest struct {
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	ReceiverID     *uuid.UUID `json:"receiver_id,omitempty"`
	Content        string     `json:"content" binding:"required"`
	Kind           string     `json:"kind,omitempty"` // text, image, file
}

type CreateGroupRequest struct {
	Title          string      `json:"title"`
	ParticipantIDs []uuid.UUID `json:"participant_ids" binding:"required"`
}

type UserInfo struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	PhotoURL string    `json:"photo_url,omitempty"`
}

type MessageResponse struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	Kind           string    `json:"kind"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
	Sender         UserInfo  `json:"sender"`
}

type ConversationResponse struct {
	ID           uuid.UUID        `json:"id"`
	Title        string           `json:"title,omitempty"`
	IsGroup      bool             `json:"is_group"`
	Participants []UserInfo       `json:"participants"`
	LastMessage  *MessageResponse `json:"last_message,omitempty"`
	UnreadCount  int64            `json:"unread_count"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
