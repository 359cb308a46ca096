package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/worldsalon/portal/internal/handlers/dto"
	"github.com/worldsalon/portal/internal/middleware"
	"github.com/worldsalon/portal/internal/models"
	"github.com/worldsalon/portal/internal/services"
)

type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.events.Create(userID, req.Title, req.Description, req.StartsAt, req.JoinURL, req.MaxAttendees, req.IsPublic)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event": event})
}

func (h *EventHandler) List(c *gin.Context) {
	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	limit := 10
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	events, err := h.events.ListUpcoming(limit, (page-1)*limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
		},
	})
}

func (h *EventHandler) Get(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	event, err := h.events.Get(eventID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": event})
}

func (h *EventHandler) RSVP(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req dto.RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.events.RSVP(userID, eventID, models.RSVPStatus(req.Status)); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rsvp recorded"})
}

func (h *EventHandler) Invite(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req dto.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.events.Invite(userID, eventID, req.UserIDs); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invitations sent"})
}

func (h *EventHandler) Cancel(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.events.Cancel(userID, eventID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "event cancelled"})
}

func (h *EventHandler) SendReminders(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.events.SendReminders(userID, eventID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "reminders sent"})
}
