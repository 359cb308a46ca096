package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title   string
	IsGroup bool `gorm:"not null"`
	// DirectKey is the sorted "min:max" participant pair for non-group
	// conversations. The unique index is what makes resolve-or-create
	// race-safe: the second creator hits a duplicate key and re-fetches.
	DirectKey      *string `gorm:"uniqueIndex"`
	LastActivityAt time.Time
	CreatedAt      time.Time

	Participants []Participant `gorm:"foreignKey:ConversationID"`
}

// Participant is a user's membership in a conversation, carrying that
// user's read progress. LastReadAt only ever moves forward.
type Participant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastReadAt     time.Time
	CreatedAt      time.Time

	User User `gorm:"foreignKey:UserID"`
}

// DirectKey builds the deterministic pair key for a direct conversation
// between two users, independent of argument order.
func DirectKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if strings.Compare(x, y) > 0 {
		x, y = y, x
	}
	return x + ":" + y
}
