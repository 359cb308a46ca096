package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/worldsalon/portal/internal/models"
	"gorm.io/gorm/clause"
)

func (d *Database) CreateEvent(event *models.Event) error {
	return d.db.Create(event).Error
}

func (d *Database) GetEvent(id string) (*models.Event, error) {
	var event models.Event
	err := d.db.
		Preload("Organizer").
		Preload("RSVPs").
		Preload("RSVPs.User").
		First(&event, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *Database) ListUpcomingEvents(limit, offset int) ([]models.Event, error) {
	var events []models.Event
	err := d.db.
		Where("is_public = ? AND status = ? AND starts_at >= ?", true, models.EventScheduled, time.Now()).
		Order("starts_at ASC").
		Limit(limit).
		Offset(offset).
		Preload("Organizer").
		Find(&events).Error
	return events, err
}

func (d *Database) UpdateEventStatus(id uuid.UUID, status models.EventStatus) error {
	return d.db.Model(&models.Event{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// SaveRSVP upserts a user's RSVP for an event; answering twice replaces
// the previous answer.
func (d *Database) SaveRSVP(rsvp *models.EventRSVP) error {
	return d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(rsvp).Error
}

func (d *Database) GetEventRSVPs(eventID uuid.UUID, status models.RSVPStatus) ([]models.EventRSVP, error) {
	var rsvps []models.EventRSVP
	err := d.db.
		Where("event_id = ? AND status = ?", eventID, status).
		Preload("User").
		Find(&rsvps).Error
	return rsvps, err
}
