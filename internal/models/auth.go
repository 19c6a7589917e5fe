package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PeerTokenRequest exchanges a peer's access code for an access token.
type PeerTokenRequest struct {
	PeerID     string `json:"peer_id" validate:"required"`
	AccessCode string `json:"access_code" validate:"required"`
}

// TokenResponse returns an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	Role        UserRole  `json:"role"`
	PeerID      string    `json:"peer_id,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	PeerID string   `json:"peer_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the caller identity used by services.
func (c *JWTClaims) Actor() *Actor {
	if c == nil {
		return nil
	}
	return &Actor{UserID: c.UserID, Role: c.Role, PeerID: c.PeerID}
}
