package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/cab-basket/socios-api/internal/middleware"
	"github.com/cab-basket/socios-api/internal/models"
)

type memberResolver interface {
	GetByUserID(ctx context.Context, userID string) (*models.Member, error)
}

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

// memberIDForClaims resolves the member profile behind an account. Staff
// accounts without a profile resolve to the empty string.
func memberIDForClaims(c *gin.Context, resolver memberResolver, claims *models.JWTClaims) string {
	if resolver == nil || claims == nil {
		return ""
	}
	member, err := resolver.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		return ""
	}
	return member.ID
}
