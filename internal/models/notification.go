package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationEventReminder   NotificationKind = "event_reminder"
	NotificationEventInvitation NotificationKind = "event_invitation"
	NotificationMessageReceived NotificationKind = "message_received"
	NotificationRSVPUpdate      NotificationKind = "rsvp_update"
	NotificationEventCancelled  NotificationKind = "event_cancelled"
	NotificationSystem          NotificationKind = "system"
)

type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	Title     string           `gorm:"not null"`
	Message   string           `gorm:"not null"`
	Kind      NotificationKind `gorm:"not null"`
	Payload   json.RawMessage  `gorm:"type:jsonb"`
	IsRead    bool             `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// NotificationPayload is the kind-tagged union behind Notification.Payload.
// Each kind has its own variant; the stored JSON is the marshalled variant.
type NotificationPayload interface {
	NotificationKind() NotificationKind
}

type EventReminderPayload struct {
	EventID    uuid.UUID `json:"event_id"`
	EventTitle string    `json:"event_title"`
	StartsAt   time.Time `json:"starts_at"`
	JoinURL    string    `json:"join_url,omitempty"`
	HoursUntil int       `json:"hours_until"`
}

func (EventReminderPayload) NotificationKind() NotificationKind { return NotificationEventReminder }

type EventInvitationPayload struct {
	EventID       uuid.UUID `json:"event_id"`
	EventTitle    string    `json:"event_title"`
	StartsAt      time.Time `json:"starts_at"`
	OrganizerName string    `json:"organizer_name"`
}

func (EventInvitationPayload) NotificationKind() NotificationKind { return NotificationEventInvitation }

type MessageReceivedPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Preview        string    `json:"preview"`
}

func (MessageReceivedPayload) NotificationKind() NotificationKind { return NotificationMessageReceived }

type RSVPUpdatePayload struct {
	EventID    uuid.UUID `json:"event_id"`
	EventTitle string    `json:"event_title"`
	UserID     uuid.UUID `json:"user_id"`
	UserName   string    `json:"user_name"`
	Status     string    `json:"status"`
}

func (RSVPUpdatePayload) NotificationKind() NotificationKind { return NotificationRSVPUpdate }

type EventCancelledPayload struct {
	EventID    uuid.UUID `json:"event_id"`
	EventTitle string    `json:"event_title"`
	StartsAt   time.Time `json:"starts_at"`
}

func (EventCancelledPayload) NotificationKind() NotificationKind { return NotificationEventCancelled }

type SystemPayload struct {
	Note string `json:"note,omitempty"`
}

func (SystemPayload) NotificationKind() NotificationKind { return NotificationSystem }
