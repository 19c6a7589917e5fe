package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/peer-match-api/internal/dto"
	"github.com/noah-isme/peer-match-api/internal/models"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
	"github.com/noah-isme/peer-match-api/pkg/response"
)

type peerService interface {
	List(ctx context.Context, domain string) ([]models.Peer, error)
	Get(ctx context.Context, id string) (*models.Peer, error)
	Create(ctx context.Context, req dto.PeerRequest) (*models.Peer, error)
	Update(ctx context.Context, id string, req dto.PeerRequest, actor *models.Actor) (*models.Peer, error)
	Delete(ctx context.Context, id string) error
}

// PeerHandler exposes peer registry endpoints.
type PeerHandler struct {
	service peerService
}

// NewPeerHandler constructs a peer handler.
func NewPeerHandler(svc peerService) *PeerHandler {
	return &PeerHandler{service: svc}
}

// List godoc
// @Summary List peers, newest first
// @Tags Peers
// @Produce json
// @Param domain query string false "Domain filter (case-insensitive)"
// @Success 200 {object} response.Envelope
// @Router /peers [get]
func (h *PeerHandler) List(c *gin.Context) {
	peers, err := h.service.List(c.Request.Context(), c.Query("domain"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, peers, nil)
}

// Get godoc
// @Summary Get peer
// @Tags Peers
// @Produce json
// @Param id path string true "Peer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /peers/{id} [get]
func (h *PeerHandler) Get(c *gin.Context) {
	peer, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, peer, nil)
}

// Create godoc
// @Summary Create peer
// @Tags Peers
// @Accept json
// @Produce json
// @Param payload body dto.PeerRequest true "Peer payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /peers [post]
func (h *PeerHandler) Create(c *gin.Context) {
	var req dto.PeerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid peer payload"))
		return
	}
	peer, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, peer)
}

// Update godoc
// @Summary Replace peer
// @Tags Peers
// @Accept json
// @Produce json
// @Param id path string true "Peer ID"
// @Param payload body dto.PeerRequest true "Peer payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /peers/{id} [put]
func (h *PeerHandler) Update(c *gin.Context) {
	var req dto.PeerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid peer payload"))
		return
	}
	peer, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, peer, nil)
}

// Delete godoc
// @Summary Delete peer
// @Tags Peers
// @Produce json
// @Param id path string true "Peer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /peers/{id} [delete]
func (h *PeerHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DeletedResponse{ID: id, Message: "peer deleted"}, nil)
}
