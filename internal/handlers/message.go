package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/worldsalon/portal/internal/handlers/dto"
	"github.com/worldsalon/portal/internal/middleware"
	"github.com/worldsalon/portal/internal/models"
	"github.com/worldsalon/portal/internal/services"
)

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// ListConversations returns the caller's conversations with last message
// and derived unread counts.
func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	summaries, err := h.messages.ListConversations(userID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	result := make([]dto.ConversationResponse, 0, len(summaries))
	for _, summary := range summaries {
		conv := summary.Conversation

		participants := make([]dto.UserInfo, 0, len(conv.Participants))
		for _, p := range conv.Participants {
			if p.UserID == userID {
				continue
			}
			participants = append(participants, dto.UserInfo{
				ID:       p.User.ID,
				Name:     p.User.Name,
				PhotoURL: p.User.PhotoURL,
			})
		}

		resp := dto.ConversationResponse{
			ID:           conv.ID,
			Title:        conv.Title,
			IsGroup:      conv.IsGroup,
			Participants: participants,
			UnreadCount:  summary.UnreadCount,
			UpdatedAt:    conv.LastActivityAt,
		}
		if summary.LastMessage != nil {
			formatted := formatMessage(summary.LastMessage)
			resp.LastMessage = &formatted
		}

		result = append(result, resp)
	}

	c.JSON(http.StatusOK, gin.H{"conversations": result})
}

// CreateGroup creates a group conversation including the caller.
func (h *MessageHandler) CreateGroup(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.messages.CreateGroup(userID, req.Title, req.ParticipantIDs)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"conversation": gin.H{
		"id":       conv.ID,
		"title":    conv.Title,
		"is_group": conv.IsGroup,
	}})
}

// GetConversationMessages returns a page of history. Viewing as a
// participant marks others' unread messages read, atomically with the
// fetch.
func (h *MessageHandler) GetConversationMessages(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	var before *time.Time
	if b := c.Query("before"); b != "" {
		if parsed, err := time.Parse(time.RFC3339, b); err == nil {
			before = &parsed
		}
	}

	messages, err := h.messages.FetchMessages(userID, conversationID, limit, before)
	if err != nil {
		abortWithError(c, err)
		return
	}

	result := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		result[i] = formatMessage(&messages[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": result,
		"has_more": len(messages) == limit,
	})
}

// SendMessage is the write path. Exactly one of conversation_id /
// receiver_id must be supplied; that check lives here, not in the
// resolver.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if (req.ConversationID == nil) == (req.ReceiverID == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of conversation_id or receiver_id is required"})
		return
	}

	conv, err := h.messages.Resolve(userID, req.ConversationID, req.ReceiverID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	message, err := h.messages.Send(userID, conv.ID, req.Content, models.MessageKind(req.Kind), req.ReceiverID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "message sent",
		"data":    formatMessage(message),
	})
}

func formatMessage(message *models.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		Kind:           string(message.Kind),
		IsRead:         message.IsRead,
		CreatedAt:      message.CreatedAt,
		Sender: dto.UserInfo{
			ID:       message.Sender.ID,
			Name:     message.Sender.Name,
			PhotoURL: message.Sender.PhotoURL,
		},
	}
}
