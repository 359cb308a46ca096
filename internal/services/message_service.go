package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/worldsalon/portal/internal/database"
	"github.com/worldsalon/portal/internal/models"
)

// Live event names pushed by the message write path.
const (
	EventNewMessage          = "new_message"
	EventMessageNotification = "message_notification"
)

type MessageService struct {
	db            *database.Database
	pub           Publisher
	notifications *NotificationService
	log           zerolog.Logger
}

func NewMessageService(db *database.Database, pub Publisher, notifications *NotificationService, log zerolog.Logger) *MessageService {
	return &MessageService{
		db:            db,
		pub:           pub,
		notifications: notifications,
		log:           log.With().Str("component", "messages").Logger(),
	}
}

type UserInfo struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	PhotoURL string    `json:"photo_url,omitempty"`
}

// MessageEvent is the new_message frame pushed to a conversation room.
type MessageEvent struct {
	ID             uuid.UUID          `json:"id"`
	ConversationID uuid.UUID          `json:"conversation_id"`
	SenderID       uuid.UUID          `json:"sender_id"`
	Content        string             `json:"content"`
	Kind           models.MessageKind `json:"kind"`
	CreatedAt      time.Time          `json:"created_at"`
	Sender         UserInfo           `json:"sender"`
}

// MessageNotificationEvent is the lightweight ping pushed to the
// receiver's personal channel for direct messages.
type MessageNotificationEvent struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Sender         UserInfo  `json:"sender"`
	Content        string    `json:"content"`
}

type ConversationSummary struct {
	Conversation models.Conversation
	LastMessage  *models.Message
	UnreadCount  int64
}

func storageErr(op string, err error) error {
	return pkgerrors.Wrapf(ErrStorage, "%s: %v", op, err)
}

// Resolve turns a message intent into its target conversation. With a
// conversation id it validates the sender's membership; with a receiver
// id it reuses or creates the unique direct conversation for the pair.
func (s *MessageService) Resolve(senderID uuid.UUID, conversationID, receiverID *uuid.UUID) (*models.Conversation, error) {
	if conversationID != nil {
		conv, err := s.db.GetConversation(conversationID.String())
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, storageErr("get conversation", err)
		}
		for _, p := range conv.Participants {
			if p.UserID == senderID {
				return conv, nil
			}
		}
		return nil, ErrNotAuthorized
	}

	if receiverID == nil {
		return nil, ErrValidation
	}

	if _, err := s.db.GetUser(receiverID.String()); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, storageErr("get receiver", err)
	}

	conv, err := s.db.GetOrCreateDirectConversation(senderID, *receiverID)
	if err != nil {
		return nil, storageErr("resolve direct conversation", err)
	}
	return conv, nil
}

// Send persists a message in the resolved conversation and fans it out
// to live subscribers. Fan-out is best-effort: a dropped channel never
// fails the send, offline recipients catch up from persisted state.
func (s *MessageService) Send(senderID, conversationID uuid.UUID, content string, kind models.MessageKind, receiverID *uuid.UUID) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrValidation
	}

	switch kind {
	case "":
		kind = models.MessageText
	case models.MessageText, models.MessageImage, models.MessageFile:
	default:
		return nil, ErrValidation
	}

	message := &models.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
		Kind:           kind,
		CreatedAt:      time.Now(),
	}

	if err := s.db.CreateMessage(message); err != nil {
		return nil, storageErr("create message", err)
	}

	s.fanOut(message)

	go func() {
		if err := s.db.UpdateLastSeen(senderID.String()); err != nil {
			s.log.Warn().Err(err).Str("user_id", senderID.String()).Msg("update last seen failed")
		}
	}()

	return message, nil
}

func (s *MessageService) fanOut(message *models.Message) {
	sender := UserInfo{ID: message.SenderID}
	if u, err := s.db.GetUser(message.SenderID.String()); err == nil {
		sender.Name = u.Name
		sender.PhotoURL = u.PhotoURL
	} else {
		s.log.Warn().Err(err).Str("user_id", message.SenderID.String()).Msg("sender lookup for fan-out failed")
	}

	s.pub.PublishToConversation(message.ConversationID, EventNewMessage, MessageEvent{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		Kind:           message.Kind,
		CreatedAt:      message.CreatedAt,
		Sender:         sender,
	})

	if message.ReceiverID != nil {
		s.pub.PublishToUser(*message.ReceiverID, EventMessageNotification, MessageNotificationEvent{
			ConversationID: message.ConversationID,
			Sender:         sender,
			Content:        message.Content,
		})

		if _, err := s.notifications.Notify(*message.ReceiverID,
			"New message",
			sender.Name+" sent you a message",
			models.NotificationMessageReceived,
			models.MessageReceivedPayload{
				ConversationID: message.ConversationID,
				SenderID:       message.SenderID,
				SenderName:     sender.Name,
				Preview:        preview(message.Content),
			}); err != nil {
			s.log.Warn().Err(err).
				Str("message_id", message.ID.String()).
				Msg("message notification failed")
		}
	}
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) > 120 {
		return string(runes[:120])
	}
	return content
}

// FetchMessages returns a page of conversation history for the viewer.
// Viewing marks every unread message authored by others as read and
// advances the viewer's last-read timestamp, atomically with the fetch.
func (s *MessageService) FetchMessages(viewerID, conversationID uuid.UUID, limit int, before *time.Time) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	ok, err := s.participantOf(conversationID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAuthorized
	}

	messages, err := s.db.FetchAndMarkRead(conversationID, viewerID, limit, before)
	if err != nil {
		return nil, storageErr("fetch messages", err)
	}
	return messages, nil
}

func (s *MessageService) participantOf(conversationID, userID uuid.UUID) (bool, error) {
	if _, err := s.db.GetConversation(conversationID.String()); err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, ErrNotFound
		}
		return false, storageErr("get conversation", err)
	}
	ok, err := s.db.IsParticipant(conversationID, userID)
	if err != nil {
		return false, storageErr("check participant", err)
	}
	return ok, nil
}

// UnreadCount derives the viewer's unread count for one conversation.
func (s *MessageService) UnreadCount(viewerID, conversationID uuid.UUID) (int64, error) {
	count, err := s.db.UnreadMessageCount(conversationID, viewerID)
	if err != nil {
		return 0, storageErr("unread count", err)
	}
	return count, nil
}

// ListConversations returns the user's conversations, most recently
// active first, each with its last message and a derived unread count.
func (s *MessageService) ListConversations(userID uuid.UUID) ([]ConversationSummary, error) {
	convs, err := s.db.GetUserConversations(userID)
	if err != nil {
		return nil, storageErr("list conversations", err)
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := ConversationSummary{Conversation: conv}

		if last, err := s.db.LatestMessage(conv.ID); err == nil {
			summary.LastMessage = last
		} else if err != gorm.ErrRecordNotFound {
			return nil, storageErr("latest message", err)
		}

		count, err := s.db.UnreadMessageCount(conv.ID, userID)
		if err != nil {
			return nil, storageErr("unread count", err)
		}
		summary.UnreadCount = count

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// CreateGroup creates a group conversation including the creator. Group
// and direct conversations never convert into each other.
func (s *MessageService) CreateGroup(creatorID uuid.UUID, title string, participantIDs []uuid.UUID) (*models.Conversation, error) {
	if len(participantIDs) == 0 {
		return nil, ErrValidation
	}

	seen := map[uuid.UUID]bool{creatorID: true}
	ids := []uuid.UUID{creatorID}
	for _, id := range participantIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	conv, err := s.db.CreateGroupConversation(title, ids)
	if err != nil {
		return nil, storageErr("create group conversation", err)
	}
	return conv, nil
}
