package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/worldsalon/portal/internal/models"
	"gorm.io/gorm"
)

func (d *Database) GetConversation(id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := d.db.
		Preload("Participants").
		Preload("Participants.User").
		First(&conv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetUserConversations returns every conversation the user belongs to,
// most recently active first.
func (d *Database) GetUserConversations(userID uuid.UUID) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := d.db.
		Joins("JOIN participants ON participants.conversation_id = conversations.id").
		Where("participants.user_id = ?", userID).
		Order("conversations.last_activity_at DESC").
		Preload("Participants").
		Preload("Participants.User").
		Find(&convs).Error
	return convs, err
}

func (d *Database) IsParticipant(conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	err := d.db.Model(&models.Participant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error
	return count > 0, err
}

// GetOrCreateDirectConversation resolves the single direct conversation
// between two users, creating it with exactly those two participants when
// none exists. The unique direct_key index arbitrates concurrent first
// sends: the loser re-fetches the winner's row.
func (d *Database) GetOrCreateDirectConversation(a, b uuid.UUID) (*models.Conversation, error) {
	key := models.DirectKey(a, b)

	var conv models.Conversation
	err := d.db.
		Preload("Participants").
		Where("direct_key = ?", key).
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	now := time.Now()
	created := models.Conversation{
		ID:             uuid.New(),
		IsGroup:        false,
		DirectKey:      &key,
		LastActivityAt: now,
		CreatedAt:      now,
	}

	txErr := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		participants := []models.Participant{
			{ConversationID: created.ID, UserID: a, CreatedAt: now},
			{ConversationID: created.ID, UserID: b, CreatedAt: now},
		}
		return tx.Create(&participants).Error
	})
	if txErr == nil {
		created.Participants = []models.Participant{
			{ConversationID: created.ID, UserID: a, CreatedAt: now},
			{ConversationID: created.ID, UserID: b, CreatedAt: now},
		}
		return &created, nil
	}

	// Likely lost the race on direct_key; whoever won has the row.
	if err := d.db.Preload("Participants").Where("direct_key = ?", key).First(&conv).Error; err == nil {
		return &conv, nil
	}
	return nil, txErr
}

// CreateGroupConversation creates a group conversation with the given
// participant set. The caller is responsible for including the creator
// and deduplicating ids.
func (d *Database) CreateGroupConversation(title string, participantIDs []uuid.UUID) (*models.Conversation, error) {
	now := time.Now()
	conv := models.Conversation{
		ID:             uuid.New(),
		Title:          title,
		IsGroup:        true,
		LastActivityAt: now,
		CreatedAt:      now,
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&conv).Error; err != nil {
			return err
		}
		participants := make([]models.Participant, 0, len(participantIDs))
		for _, id := range participantIDs {
			participants = append(participants, models.Participant{
				ConversationID: conv.ID,
				UserID:         id,
				CreatedAt:      now,
			})
		}
		return tx.Create(&participants).Error
	})
	if err != nil {
		return nil, err
	}

	return d.GetConversation(conv.ID.String())
}
