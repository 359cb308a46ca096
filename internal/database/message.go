package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/worldsalon/portal/internal/models"
	"gorm.io/gorm"
)

// CreateMessage persists a message and bumps the owning conversation's
// last-activity timestamp in the same transaction, so a storage failure
// leaves neither half behind.
func (d *Database) CreateMessage(message *models.Message) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", message.ConversationID).
			Update("last_activity_at", message.CreatedAt).Error
	})
}

func (d *Database) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	if err := d.db.Preload("Sender").First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// FetchAndMarkRead returns a page of a conversation's messages for the
// given viewer and, atomically with the read, marks every unread message
// authored by others as read and advances the viewer's last-read
// timestamp. The timestamp only ever moves forward, so a concurrent
// second fetch by the same user cannot race it backwards.
func (d *Database) FetchAndMarkRead(conversationID, userID uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.Transaction(func(tx *gorm.DB) error {
		query := tx.Where("conversation_id = ?", conversationID)
		if before != nil {
			query = query.Where("created_at < ?", *before)
		}

		if err := query.
			Order("created_at DESC").
			Limit(limit).
			Preload("Sender").
			Find(&messages).Error; err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conversationID, userID, false).
			Update("is_read", true).Error; err != nil {
			return err
		}

		return tx.Model(&models.Participant{}).
			Where("conversation_id = ? AND user_id = ? AND last_read_at < ?", conversationID, userID, now).
			Update("last_read_at", now).Error
	})
	if err != nil {
		return nil, err
	}

	// Oldest first for the caller.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// UnreadMessageCount derives the viewer's unread count for a conversation
// from stored rows. Never cached anywhere.
func (d *Database) UnreadMessageCount(conversationID, userID uuid.UUID) (int64, error) {
	var count int64
	err := d.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND is_read = ?", conversationID, userID, false).
		Count(&count).Error
	return count, err
}

func (d *Database) LatestMessage(conversationID uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := d.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Preload("Sender").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}
