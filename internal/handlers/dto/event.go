package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateEventRequest struct {
	Title        string    `json:"title" binding:"required"`
	Description  string    `json:"description"`
	StartsAt     time.Time `json:"starts_at" binding:"required"`
	JoinURL      string    `json:"join_url"`
	MaxAttendees int       `json:"max_attendees"`
	IsPublic     bool      `json:"is_public"`
}

type RSVPRequest struct {
	Status string `json:"status" binding:"required"`
}

type InviteRequest struct {
	UserIDs []uuid.UUID `json:"user_ids" binding:"required"`
}
