package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/worldsalon/portal/internal/database"
	"github.com/worldsalon/portal/internal/middleware"
)

type UserHandler struct {
	db *database.Database
}

func NewUserHandler(db *database.Database) *UserHandler {
	return &UserHandler{db: db}
}

// GetMe returns the current user's profile.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	user, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"name":         user.Name,
		"email":        user.Email,
		"role":         user.Role,
		"photo_url":    user.PhotoURL,
		"expertise":    user.Expertise,
		"created_at":   user.CreatedAt,
		"last_seen_at": user.LastSeenAt,
	})
}

// UpdateMe updates only the supplied fields of the current profile.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req struct {
		Name      string `json:"name"`
		PhotoURL  string `json:"photo_url"`
		Expertise string `json:"expertise"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.GetUser(userID.String())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.PhotoURL != "" {
		user.PhotoURL = req.PhotoURL
	}
	if req.Expertise != "" {
		user.Expertise = req.Expertise
	}

	if err := h.db.UpdateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"name":      user.Name,
		"email":     user.Email,
		"photo_url": user.PhotoURL,
		"expertise": user.Expertise,
	})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.db.GetUser(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"name":         user.Name,
		"photo_url":    user.PhotoURL,
		"expertise":    user.Expertise,
		"last_seen_at": user.LastSeenAt,
	})
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	users, err := h.db.SearchUsersByName(query, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search users"})
		return
	}

	result := make([]gin.H, len(users))
	for i, user := range users {
		result[i] = gin.H{
			"id":        user.ID,
			"name":      user.Name,
			"photo_url": user.PhotoURL,
		}
	}

	c.JSON(http.StatusOK, gin.H{"users": result})
}
