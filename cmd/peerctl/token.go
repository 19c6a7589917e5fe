package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/peer-match-api/internal/models"
	"github.com/noah-isme/peer-match-api/internal/service"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token",
	Long:  "Signs an access token with JWT_SECRET. Admin tokens are only issued here; peers obtain theirs through POST /auth/peer-token.",
	RunE:  runToken,
}

var (
	tokenRole   string
	tokenUser   string
	tokenPeerID string
)

func init() {
	tokenCmd.Flags().StringVarP(&tokenRole, "role", "r", string(models.RoleAdmin), "Token role (ADMIN or PEER)")
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "Subject recorded in the token (required)")
	tokenCmd.Flags().StringVarP(&tokenPeerID, "peer", "p", "", "Peer ID bound to a PEER token")

	if err := tokenCmd.MarkFlagRequired("user"); err != nil {
		panic(fmt.Sprintf("failed to mark user flag as required: %v", err))
	}

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, logr, err := setup()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	auth := service.NewAuthService(nil, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	issued, err := auth.IssueToken(models.UserRole(tokenRole), tokenUser, tokenPeerID)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(issued, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
