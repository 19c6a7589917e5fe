package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/peer-match-api/internal/models"
	"github.com/noah-isme/peer-match-api/internal/service"
)

func TestTokenCommandIssuesAdminToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "peer-match-api")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--role", "ADMIN", "--user", "ops"})
	require.NoError(t, rootCmd.Execute())

	var issued models.TokenResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &issued))
	assert.Equal(t, models.RoleAdmin, issued.Role)

	auth := service.NewAuthService(nil, nil, nil, service.AuthConfig{AccessTokenSecret: "cli-secret", Issuer: "peer-match-api"})
	claims, err := auth.ValidateToken(issued.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.UserID)
}

func TestTokenCommandRejectsPeerWithoutID(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"token", "--role", "PEER", "--user", "p1", "--peer", ""})
	assert.Error(t, rootCmd.Execute())
}
