package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/worldsalon/portal/internal/database"
	"github.com/worldsalon/portal/internal/mailer"
	"github.com/worldsalon/portal/internal/models"
)

// EventNotification is the frame name for stored notifications pushed to
// the owner's personal channel.
const EventNotification = "notification"

// emailKinds is the fixed subset of notification kinds that also trigger
// an email fallback.
var emailKinds = map[models.NotificationKind]mailer.TemplateKind{
	models.NotificationEventReminder:   mailer.TemplateEventReminder,
	models.NotificationEventInvitation: mailer.TemplateEventInvitation,
	models.NotificationEventCancelled:  mailer.TemplateEventCancelled,
}

type NotificationService struct {
	db   *database.Database
	pub  Publisher
	mail mailer.Mailer
	log  zerolog.Logger
}

func NewNotificationService(db *database.Database, pub Publisher, mail mailer.Mailer, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		db:   db,
		pub:  pub,
		mail: mail,
		log:  log.With().Str("component", "notifications").Logger(),
	}
}

// Notify persists a notification, pushes it to the owner's personal
// channel, and for reminder/invitation/cancelled kinds additionally
// sends an email in the background. Push and email failures are logged,
// never rolled back, never surfaced.
func (s *NotificationService) Notify(userID uuid.UUID, title, message string, kind models.NotificationKind, payload models.NotificationPayload) (*models.Notification, error) {
	var raw json.RawMessage
	if payload != nil {
		if payload.NotificationKind() != kind {
			return nil, ErrValidation
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, ErrValidation
		}
		raw = data
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		Payload:   raw,
		CreatedAt: time.Now(),
	}

	if err := s.db.SaveNotification(notification); err != nil {
		return nil, storageErr("save notification", err)
	}

	s.pub.PublishToUser(userID, EventNotification, notification)

	if template, ok := emailKinds[kind]; ok {
		go s.sendEmail(notification, template)
	}

	return notification, nil
}

func (s *NotificationService) sendEmail(notification *models.Notification, template mailer.TemplateKind) {
	user, err := s.db.GetUser(notification.UserID.String())
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", notification.UserID.String()).Msg("email target lookup failed")
		return
	}

	data := mailer.TemplateData{
		"UserName": user.Name,
		"Title":    notification.Title,
		"Message":  notification.Message,
	}
	if len(notification.Payload) > 0 {
		var extra map[string]interface{}
		if err := json.Unmarshal(notification.Payload, &extra); err == nil {
			if v, ok := extra["event_title"]; ok {
				data["EventTitle"] = v
			}
			if v, ok := extra["starts_at"]; ok {
				data["StartsAt"] = v
			}
			if v, ok := extra["join_url"]; ok {
				data["JoinURL"] = v
			}
		}
	}

	if err := s.mail.Send(context.Background(), user.Email, notification.Title, template, data); err != nil {
		s.log.Warn().Err(err).
			Str("user_id", user.ID.String()).
			Str("kind", string(notification.Kind)).
			Msg("notification email failed")
	}
}

// MarkRead flips one notification to read. Idempotent and one-way; only
// the owner may do it.
func (s *NotificationService) MarkRead(userID, notificationID uuid.UUID) error {
	notification, err := s.getOwned(userID, notificationID)
	if err != nil {
		return err
	}
	if notification.IsRead {
		return nil
	}
	if err := s.db.MarkNotificationRead(notificationID); err != nil {
		return storageErr("mark notification read", err)
	}
	return nil
}

// MarkAllRead flips every currently-unread notification of the user.
func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	if err := s.db.MarkAllNotificationsRead(userID); err != nil {
		return storageErr("mark all notifications read", err)
	}
	return nil
}

// Delete permanently removes an owned notification.
func (s *NotificationService) Delete(userID, notificationID uuid.UUID) error {
	if _, err := s.getOwned(userID, notificationID); err != nil {
		return err
	}
	if err := s.db.DeleteNotification(notificationID); err != nil {
		return storageErr("delete notification", err)
	}
	return nil
}

func (s *NotificationService) getOwned(userID, notificationID uuid.UUID) (*models.Notification, error) {
	notification, err := s.db.GetNotification(notificationID.String())
	if err == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get notification", err)
	}
	if notification.UserID != userID {
		return nil, ErrNotAuthorized
	}
	return notification, nil
}

// List returns a page of the user's notifications plus the derived
// unread count. The count is a live COUNT over stored rows.
func (s *NotificationService) List(userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.db.ListNotifications(userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, storageErr("list notifications", err)
	}

	unread, err := s.db.UnreadNotificationCount(userID)
	if err != nil {
		return nil, 0, storageErr("unread notification count", err)
	}

	return notifications, unread, nil
}
