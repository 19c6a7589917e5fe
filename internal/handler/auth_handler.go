package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/peer-match-api/internal/models"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
	"github.com/noah-isme/peer-match-api/pkg/response"
)

type authService interface {
	PeerToken(ctx context.Context, req models.PeerTokenRequest) (*models.TokenResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// PeerToken godoc
// @Summary Exchange a peer access code for a token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.PeerTokenRequest true "Peer credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/peer-token [post]
func (h *AuthHandler) PeerToken(c *gin.Context) {
	var req models.PeerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid token payload"))
		return
	}

	res, err := h.service.PeerToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Me godoc
// @Summary Describe the caller's token
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"user_id": claims.UserID, "role": claims.Role, "peer_id": claims.PeerID}, nil)
}
