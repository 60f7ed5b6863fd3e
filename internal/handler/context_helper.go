package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/middleware"
	"github.com/hamidrezasoltanian/recruitment-dashboard/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actorName returns the display name recorded in candidate history.
func actorName(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return "unknown"
	}
	if claims.FullName != "" {
		return claims.FullName
	}
	return claims.Email
}
