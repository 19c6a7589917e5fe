package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/peer-match-api/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logr, err := setup()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := database.Migrate(cmd.Context(), db, logr)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logr.Info("migrations complete", zap.Int("applied", applied))
	fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
	return nil
}
