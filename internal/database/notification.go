package database

import (
	"github.com/google/uuid"
	"github.com/worldsalon/portal/internal/models"
)

func (d *Database) SaveNotification(notification *models.Notification) error {
	return d.db.Create(notification).Error
}

func (d *Database) GetNotification(id string) (*models.Notification, error) {
	var notification models.Notification
	if err := d.db.First(&notification, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

func (d *Database) ListNotifications(userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification

	query := d.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	return notifications, err
}

func (d *Database) MarkNotificationRead(id uuid.UUID) error {
	return d.db.Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

func (d *Database) MarkAllNotificationsRead(userID uuid.UUID) error {
	return d.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func (d *Database) DeleteNotification(id uuid.UUID) error {
	return d.db.Delete(&models.Notification{}, "id = ?", id).Error
}

func (d *Database) UnreadNotificationCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := d.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
