package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// RequireAuth validates the bearer token and aborts unauthenticated
// requests. The subject claim becomes user_id in the request context.
func RequireAuth(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := userIDFromRequest(c, jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// OptionalAuth resolves the viewer identity when a valid token is
// present and lets anonymous requests through with no user_id set. Feed
// routes use this: every feed policy degrades to anonymous-safe
// defaults instead of demanding identity.
func OptionalAuth(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if userID, err := userIDFromRequest(c, jwtSecret); err == nil {
				c.Set("user_id", userID)
			}
		}
		c.Next()
	}
}

func userIDFromRequest(c *gin.Context, jwtSecret []byte) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", fmt.Errorf("no token provided")
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return "", fmt.Errorf("token missing subject")
	}
	return userID, nil
}
