package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/worldsalon/portal/internal/services"
)

// abortWithError maps the service error taxonomy onto HTTP statuses.
// Storage failures are retryable 500s; everything unexpected is treated
// the same way.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error, please retry"})
	}
}
