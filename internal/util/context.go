package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetUserIDFromContext extracts the user ID from the Gin context.
// If the user is not authenticated, it automatically responds with 401.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user ID in context"})
		return "", false
	}
	return userIDStr, true
}

// ViewerIDFromContext returns the user id for optionally-authenticated
// routes; empty string means anonymous.
func ViewerIDFromContext(c *gin.Context) string {
	return c.GetString("user_id")
}
