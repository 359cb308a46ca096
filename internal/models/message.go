package models

import (
	"github.com/google/uuid"
	"time"
)

type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
	MessageFile  MessageKind = "file"
)

// Message is immutable once written, except IsRead which flips
// false->true when the other side views the conversation.
type Message struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID   `gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID   `gorm:"type:uuid;not null"`
	ReceiverID     *uuid.UUID  `gorm:"type:uuid"` // set for direct messages only
	Content        string      `gorm:"not null"`
	Kind           MessageKind `gorm:"not null;default:'text'"`
	IsRead         bool        `gorm:"not null;default:false"`
	CreatedAt      time.Time   `gorm:"index"`

	Sender User `gorm:"foreignKey:SenderID"`
}
