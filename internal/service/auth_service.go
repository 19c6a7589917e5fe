package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/peer-match-api/internal/models"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
)

type authPeerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Peer, error)
}

// AuthConfig defines token signing parameters.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService issues and validates access tokens.
type AuthService struct {
	peers     authPeerRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(peers authPeerRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{peers: peers, validator: validate, logger: logger, config: config}
}

// PeerToken exchanges a peer's access code for a PEER token bound to that peer.
func (s *AuthService) PeerToken(ctx context.Context, req models.PeerTokenRequest) (*models.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid token payload")
	}

	peer, err := s.peers.FindByID(ctx, req.PeerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Storage(err, "failed to load peer")
	}
	if !peer.HasAccessCode() {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*peer.AccessCodeHash), []byte(req.AccessCode)); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	resp, err := s.IssueToken(models.RolePeer, peer.ID, peer.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("peer token issued", zap.String("peer_id", peer.ID))
	return resp, nil
}

// IssueToken signs an access token for the given identity. PEER tokens require peerID.
func (s *AuthService) IssueToken(role models.UserRole, userID, peerID string) (*models.TokenResponse, error) {
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", role))
	}
	if strings.TrimSpace(userID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}
	if role == models.RolePeer && strings.TrimSpace(peerID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "peer tokens require a peer id")
	}

	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID: userID,
		Role:   role,
		PeerID: peerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.TokenResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		Role:        role,
		PeerID:      peerID,
		IssuedAt:    issuedAt,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if s.config.Issuer != "" && claims.Issuer != s.config.Issuer {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token issuer")
	}

	return claims, nil
}
