package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/peer-match-api/internal/middleware"
	"github.com/noah-isme/peer-match-api/internal/models"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
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

func actorFromContext(c *gin.Context) *models.Actor {
	return claimsFromContext(c).Actor()
}

// queryLimit parses ?limit=; an absent value yields 0.
func queryLimit(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer")
	}
	return limit, nil
}
