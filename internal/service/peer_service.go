package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/peer-match-api/internal/dto"
	"github.com/noah-isme/peer-match-api/internal/models"
	"github.com/noah-isme/peer-match-api/internal/repository"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
)

type peerRepository interface {
	List(ctx context.Context, domain string) ([]models.Peer, error)
	FindByID(ctx context.Context, id string) (*models.Peer, error)
	Create(ctx context.Context, peer *models.Peer) error
	Update(ctx context.Context, peer *models.Peer) error
	Delete(ctx context.Context, id string) error
}

// PeerConfig controls peer registry authorization.
type PeerConfig struct {
	AuthEnabled bool
}

// PeerService handles peer registry use-cases.
type PeerService struct {
	repo      peerRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    PeerConfig
	hashCost  int
}

// NewPeerService constructs the peer service.
func NewPeerService(repo peerRepository, validate *validator.Validate, logger *zap.Logger, cfg PeerConfig) *PeerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeerService{repo: repo, validator: validate, logger: logger, config: cfg, hashCost: bcrypt.DefaultCost}
}

// List returns the newest peers first, optionally restricted to one domain.
func (s *PeerService) List(ctx context.Context, domain string) ([]models.Peer, error) {
	peers, err := s.repo.List(ctx, domain)
	if err != nil {
		return nil, appErrors.Storage(err, "failed to list peers")
	}
	if peers == nil {
		peers = []models.Peer{}
	}
	return peers, nil
}

// Get returns a peer by ID.
func (s *PeerService) Get(ctx context.Context, id string) (*models.Peer, error) {
	peer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "peer not found")
		}
		return nil, appErrors.Storage(err, "failed to load peer")
	}
	return peer, nil
}

// Create registers a peer. Charges default to 3000, rating and experience to 0.
func (s *PeerService) Create(ctx context.Context, req dto.PeerRequest) (*models.Peer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid peer payload")
	}
	peer := &models.Peer{}
	if err := s.applyPeerRequest(peer, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, peer); err != nil {
		return nil, appErrors.Storage(err, "failed to create peer")
	}
	s.logger.Info("peer created", zap.String("peer_id", peer.ID), zap.String("domain", peer.Domain))
	return peer, nil
}

// Update replaces a peer's attributes. An omitted access code keeps the stored one.
// With auth enabled only an admin or the peer itself may update the record.
func (s *PeerService) Update(ctx context.Context, id string, req dto.PeerRequest, actor *models.Actor) (*models.Peer, error) {
	if err := s.authorize(id, actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid peer payload")
	}
	peer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyPeerRequest(peer, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, peer); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "peer not found")
		}
		return nil, appErrors.Storage(err, "failed to update peer")
	}
	s.logger.Info("peer updated", zap.String("peer_id", peer.ID), zap.Bool("access_code_changed", req.AccessCode != nil))
	return peer, nil
}

func (s *PeerService) authorize(peerID string, actor *models.Actor) error {
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
		if actor.PeerID != "" && actor.PeerID == peerID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "cannot update another peer")
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role cannot update peers")
	}
}

// Delete removes a peer that no session references.
func (s *PeerService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "peer not found")
		case errors.Is(err, repository.ErrReferenced):
			return appErrors.Clone(appErrors.ErrConflict, "peer has sessions")
		default:
			return appErrors.Storage(err, "failed to delete peer")
		}
	}
	s.logger.Info("peer deleted", zap.String("peer_id", id))
	return nil
}

func (s *PeerService) applyPeerRequest(peer *models.Peer, req dto.PeerRequest) error {
	peer.Name = strings.TrimSpace(req.Name)
	peer.Domain = strings.TrimSpace(req.Domain)
	peer.Experience = valueOr(req.Experience, 0)
	peer.Rating = valueOr(req.Rating, 0)
	peer.Charges = valueOr(req.Charges, models.DefaultPeerCharges)
	if req.AccessCode != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.AccessCode), s.hashCost)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash access code")
		}
		hashed := string(hash)
		peer.AccessCodeHash = &hashed
	}
	return nil
}

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
