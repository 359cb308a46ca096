package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/worldsalon/portal/internal/database"
	"github.com/worldsalon/portal/internal/models"
)

// EventService owns the event/RSVP flows that feed the notification
// kinds: invitations on invite, rsvp-update to the organizer, cancelled
// to confirmed attendees, reminders before start.
type EventService struct {
	db            *database.Database
	notifications *NotificationService
	log           zerolog.Logger
}

func NewEventService(db *database.Database, notifications *NotificationService, log zerolog.Logger) *EventService {
	return &EventService{
		db:            db,
		notifications: notifications,
		log:           log.With().Str("component", "events").Logger(),
	}
}

func (s *EventService) Create(organizerID uuid.UUID, title, description string, startsAt time.Time, joinURL string, maxAttendees int, isPublic bool) (*models.Event, error) {
	if title == "" || startsAt.IsZero() {
		return nil, ErrValidation
	}

	event := &models.Event{
		ID:           uuid.New(),
		Title:        title,
		Description:  description,
		StartsAt:     startsAt,
		JoinURL:      joinURL,
		Status:       models.EventScheduled,
		MaxAttendees: maxAttendees,
		IsPublic:     isPublic,
		OrganizerID:  organizerID,
		CreatedAt:    time.Now(),
	}

	if err := s.db.CreateEvent(event); err != nil {
		return nil, storageErr("create event", err)
	}
	return event, nil
}

func (s *EventService) Get(eventID uuid.UUID) (*models.Event, error) {
	event, err := s.db.GetEvent(eventID.String())
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get event", err)
	}
	return event, nil
}

func (s *EventService) ListUpcoming(limit, offset int) ([]models.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	events, err := s.db.ListUpcomingEvents(limit, offset)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	return events, nil
}

// Invite notifies each invitee; only the organizer may invite.
func (s *EventService) Invite(organizerID, eventID uuid.UUID, userIDs []uuid.UUID) error {
	event, err := s.ownedEvent(organizerID, eventID)
	if err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return ErrValidation
	}

	organizer, err := s.db.GetUser(organizerID.String())
	if err != nil {
		return storageErr("get organizer", err)
	}

	for _, userID := range userIDs {
		_, err := s.notifications.Notify(userID,
			"Event Invitation",
			fmt.Sprintf("%s invited you to %q", organizer.Name, event.Title),
			models.NotificationEventInvitation,
			models.EventInvitationPayload{
				EventID:       event.ID,
				EventTitle:    event.Title,
				StartsAt:      event.StartsAt,
				OrganizerName: organizer.Name,
			})
		if err != nil {
			s.log.Warn().Err(err).
				Str("event_id", event.ID.String()).
				Str("user_id", userID.String()).
				Msg("invitation notification failed")
		}
	}
	return nil
}

// RSVP records the caller's answer and notifies the organizer.
func (s *EventService) RSVP(userID, eventID uuid.UUID, status models.RSVPStatus) error {
	switch status {
	case models.RSVPYes, models.RSVPNo, models.RSVPMaybe:
	default:
		return ErrValidation
	}

	event, err := s.Get(eventID)
	if err != nil {
		return err
	}
	if event.Status == models.EventCancelled {
		return ErrValidation
	}

	if err := s.db.SaveRSVP(&models.EventRSVP{
		EventID:   eventID,
		UserID:    userID,
		Status:    status,
		UpdatedAt: time.Now(),
	}); err != nil {
		return storageErr("save rsvp", err)
	}

	user, err := s.db.GetUser(userID.String())
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("rsvp user lookup failed")
		return nil
	}

	if _, err := s.notifications.Notify(event.OrganizerID,
		"RSVP Update",
		fmt.Sprintf("%s responded %q to %q", user.Name, status, event.Title),
		models.NotificationRSVPUpdate,
		models.RSVPUpdatePayload{
			EventID:    event.ID,
			EventTitle: event.Title,
			UserID:     userID,
			UserName:   user.Name,
			Status:     string(status),
		}); err != nil {
		s.log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("rsvp notification failed")
	}
	return nil
}

// Cancel marks the event cancelled and notifies confirmed attendees.
func (s *EventService) Cancel(organizerID, eventID uuid.UUID) error {
	event, err := s.ownedEvent(organizerID, eventID)
	if err != nil {
		return err
	}
	if event.Status == models.EventCancelled {
		return nil
	}

	if err := s.db.UpdateEventStatus(eventID, models.EventCancelled); err != nil {
		return storageErr("cancel event", err)
	}

	s.notifyConfirmed(event, "Event Cancelled",
		fmt.Sprintf("%q has been cancelled", event.Title),
		models.NotificationEventCancelled,
		models.EventCancelledPayload{
			EventID:    event.ID,
			EventTitle: event.Title,
			StartsAt:   event.StartsAt,
		})
	return nil
}

// SendReminders notifies every confirmed attendee how soon the event
// starts; only the organizer may trigger it.
func (s *EventService) SendReminders(organizerID, eventID uuid.UUID) error {
	event, err := s.ownedEvent(organizerID, eventID)
	if err != nil {
		return err
	}
	if event.Status == models.EventCancelled {
		return ErrValidation
	}

	hoursUntil := int(time.Until(event.StartsAt).Round(time.Hour) / time.Hour)
	s.notifyConfirmed(event, "Event Reminder",
		fmt.Sprintf("%q starts in %d hours", event.Title, hoursUntil),
		models.NotificationEventReminder,
		models.EventReminderPayload{
			EventID:    event.ID,
			EventTitle: event.Title,
			StartsAt:   event.StartsAt,
			JoinURL:    event.JoinURL,
			HoursUntil: hoursUntil,
		})
	return nil
}

func (s *EventService) notifyConfirmed(event *models.Event, title, message string, kind models.NotificationKind, payload models.NotificationPayload) {
	rsvps, err := s.db.GetEventRSVPs(event.ID, models.RSVPYes)
	if err != nil {
		s.log.Warn().Err(err).Str("event_id", event.ID.String()).Msg("attendee lookup failed")
		return
	}
	for _, rsvp := range rsvps {
		if _, err := s.notifications.Notify(rsvp.UserID, title, message, kind, payload); err != nil {
			s.log.Warn().Err(err).
				Str("event_id", event.ID.String()).
				Str("user_id", rsvp.UserID.String()).
				Msg("attendee notification failed")
		}
	}
}

func (s *EventService) ownedEvent(organizerID, eventID uuid.UUID) (*models.Event, error) {
	event, err := s.Get(eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, ErrNotAuthorized
	}
	return event, nil
}
