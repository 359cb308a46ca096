package models

import (
	"github.com/google/uuid"
	"time"
)

type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventCancelled EventStatus = "cancelled"
)

type RSVPStatus string

const (
	RSVPYes   RSVPStatus = "yes"
	RSVPNo    RSVPStatus = "no"
	RSVPMaybe RSVPStatus = "maybe"
)

type Event struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Title        string      `gorm:"not null"`
	Description  string
	StartsAt     time.Time   `gorm:"not null;index"`
	JoinURL      string
	Status       EventStatus `gorm:"not null;default:'scheduled'"`
	MaxAttendees int
	IsPublic     bool
	OrganizerID  uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time

	Organizer User        `gorm:"foreignKey:OrganizerID"`
	RSVPs     []EventRSVP `gorm:"foreignKey:EventID"`
}

type EventRSVP struct {
	EventID   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Status    RSVPStatus `gorm:"not null"`
	UpdatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}
