package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/peer-match-api/internal/dto"
	"github.com/noah-isme/peer-match-api/internal/models"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
	"github.com/noah-isme/peer-match-api/pkg/export"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error)
	UpdateFields(ctx context.Context, id string, update models.SessionUpdate) error
	List(ctx context.Context, limit int) ([]models.SessionDetail, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// SessionConfig controls listing limits and whether updates require an actor.
type SessionConfig struct {
	ListLimit   int
	AuthEnabled bool
}

// ExportFile is a rendered session export.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// SessionService manages the session lifecycle after creation.
type SessionService struct {
	repo      sessionRepository
	renderers map[dto.SessionExportFormat]datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
	config    SessionConfig
	now       func() time.Time
}

// NewSessionService constructs a SessionService with CSV and PDF exporters.
func NewSessionService(repo sessionRepository, validate *validator.Validate, logger *zap.Logger, cfg SessionConfig) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 1000
	}
	return &SessionService{
		repo: repo,
		renderers: map[dto.SessionExportFormat]datasetRenderer{
			dto.SessionExportCSV: export.NewCSVExporter(),
			dto.SessionExportPDF: export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Update patches a session on behalf of actor. Any known status may follow any other.
func (s *SessionService) Update(ctx context.Context, id string, req dto.UpdateSessionRequest, actor *models.Actor) (*models.SessionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session update")
	}
	if req.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one of status, scheduled_at, remarks or topic is required")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Storage(err, "failed to load session")
	}
	if err := s.authorize(current, actor); err != nil {
		return nil, err
	}
	if req.Status != nil && !models.TransitionAllowed(current.Status, *req.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot move session from %s to %s", current.Status, *req.Status))
	}

	if err := s.repo.UpdateFields(ctx, id, req.ToUpdate(s.now())); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Storage(err, "failed to update session")
	}

	updated, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to reload session")
	}

	fields := []zap.Field{zap.String("session_id", id)}
	if req.Status != nil {
		fields = append(fields, zap.String("from", string(current.Status)), zap.String("to", string(*req.Status)))
	}
	if actor != nil {
		fields = append(fields, zap.String("actor", actor.UserID), zap.String("role", string(actor.Role)))
	}
	s.logger.Info("session updated", fields...)
	return updated, nil
}

func (s *SessionService) authorize(session *models.Session, actor *models.Actor) error {
	if !s.config.AuthEnabled {
		return nil
	}
	if actor == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RolePeer:
		if actor.PeerID != "" && actor.PeerID == session.PeerID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "session belongs to another peer")
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role cannot update sessions")
	}
}

// List returns the most recently updated sessions. limit <= 0 or above the cap uses the cap.
func (s *SessionService) List(ctx context.Context, limit int) ([]models.SessionDetail, error) {
	if limit <= 0 || limit > s.config.ListLimit {
		limit = s.config.ListLimit
	}
	sessions, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list sessions")
	}
	if sessions == nil {
		sessions = []models.SessionDetail{}
	}
	return sessions, nil
}

// Export renders the session list in the requested format.
func (s *SessionService) Export(ctx context.Context, format dto.SessionExportFormat) (*ExportFile, error) {
	if format == "" {
		format = dto.SessionExportCSV
	}
	renderer, ok := s.renderers[dto.SessionExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	sessions, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(sessionDataset(sessions))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("sessions-%s.%s", s.now().Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func sessionDataset(sessions []models.SessionDetail) export.Dataset {
	rows := make([][]string, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, []string{
			session.ID,
			session.StudentName,
			session.PeerName,
			session.Topic,
			string(session.Status),
			session.ScheduledAt.UTC().Format(time.RFC3339),
			session.Remarks,
			session.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Title:   "Tutoring sessions",
		Headers: []string{"ID", "Student", "Peer", "Topic", "Status", "Scheduled At", "Remarks", "Updated At"},
		Rows:    rows,
	}
}
