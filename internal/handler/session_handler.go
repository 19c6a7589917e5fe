package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/peer-match-api/internal/dto"
	"github.com/noah-isme/peer-match-api/internal/models"
	"github.com/noah-isme/peer-match-api/internal/service"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
	"github.com/noah-isme/peer-match-api/pkg/response"
)

type matchService interface {
	Score(ctx context.Context, studentID, peerID string) (*models.ScoreResult, error)
	RankCandidates(ctx context.Context, studentID string, limit int) ([]models.Candidate, error)
	CreateMatchedSession(ctx context.Context, req dto.CreateSessionRequest) (*dto.CreatedSessionResponse, error)
	RunBulkMatch(ctx context.Context, req dto.BulkMatchRequest) (*dto.BulkMatchResponse, error)
}

type sessionService interface {
	Update(ctx context.Context, id string, req dto.UpdateSessionRequest, actor *models.Actor) (*models.SessionDetail, error)
	List(ctx context.Context, limit int) ([]models.SessionDetail, error)
	Export(ctx context.Context, format dto.SessionExportFormat) (*service.ExportFile, error)
}

// SessionHandler exposes matching and session lifecycle endpoints.
type SessionHandler struct {
	matches  matchService
	sessions sessionService
}

// NewSessionHandler builds a session handler.
func NewSessionHandler(matches matchService, sessions sessionService) *SessionHandler {
	return &SessionHandler{matches: matches, sessions: sessions}
}

// Match godoc
// @Summary Rank candidate peers or create a session
// @Description Without an action returns the top candidates for the student. With action=create stores a pending session for peer_id.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.MatchRequest true "Match payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/match [post]
func (h *SessionHandler) Match(c *gin.Context) {
	var req dto.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid match payload"))
		return
	}

	switch req.Action {
	case dto.MatchActionRank:
		candidates, err := h.matches.RankCandidates(c.Request.Context(), req.StudentID, req.Limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, dto.CandidatesResponse{Candidates: candidates}, nil)
	case dto.MatchActionCreate:
		h.create(c, dto.CreateSessionRequest{
			StudentID:   req.StudentID,
			PeerID:      req.PeerID,
			Topic:       req.Topic,
			ScheduledAt: req.ScheduledAt,
			Remarks:     req.Remarks,
		})
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown action"))
	}
}

// Create godoc
// @Summary Create a session for a chosen peer
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	h.create(c, req)
}

func (h *SessionHandler) create(c *gin.Context, req dto.CreateSessionRequest) {
	created, err := h.matches.CreateMatchedSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Bulk godoc
// @Summary Run greedy bulk matching
// @Description Pairs each student with at most one peer by descending score and stores matched sessions.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.BulkMatchRequest false "Optional ID filters"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/match/bulk [post]
func (h *SessionHandler) Bulk(c *gin.Context) {
	var req dto.BulkMatchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk match payload"))
			return
		}
	}

	result, err := h.matches.RunBulkMatch(c.Request.Context(), req)
	if err != nil {
		if result != nil {
			response.ErrorWithData(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Update godoc
// @Summary Update session status or details
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateSessionRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id} [patch]
func (h *SessionHandler) Update(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session update"))
		return
	}

	updated, err := h.sessions.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// List godoc
// @Summary List sessions, most recently updated first
// @Tags Sessions
// @Produce json
// @Param limit query int false "Maximum sessions (capped at 1000)"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	sessions, err := h.sessions.List(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil, map[string]interface{}{"count": len(sessions)})
}

// Export godoc
// @Summary Export sessions as CSV or PDF
// @Tags Sessions
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /sessions/export [get]
func (h *SessionHandler) Export(c *gin.Context) {
	file, err := h.sessions.Export(c.Request.Context(), dto.SessionExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

// Score godoc
// @Summary Compute the compatibility score of a student/peer pair
// @Tags Sessions
// @Produce json
// @Param student_id query string true "Student ID"
// @Param peer_id query string true "Peer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/score [get]
func (h *SessionHandler) Score(c *gin.Context) {
	result, err := h.matches.Score(c.Request.Context(), c.Query("student_id"), c.Query("peer_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
