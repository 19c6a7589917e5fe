package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/peer-match-api/internal/app"
	"github.com/noah-isme/peer-match-api/internal/dto"
)

var bulkMatchCmd = &cobra.Command{
	Use:   "bulk-match",
	Short: "Run one greedy bulk matching pass",
	Long:  "Scores every student against every peer and stores one matched session per pair picked greedily by descending score.",
	RunE:  runBulkMatch,
}

var (
	bulkStudentIDs []string
	bulkPeerIDs    []string
	bulkUnmatched  bool
)

func init() {
	bulkMatchCmd.Flags().StringSliceVar(&bulkStudentIDs, "students", nil, "Restrict the run to these student IDs")
	bulkMatchCmd.Flags().StringSliceVar(&bulkPeerIDs, "peers", nil, "Restrict the run to these peer IDs")
	bulkMatchCmd.Flags().BoolVar(&bulkUnmatched, "only-unmatched", true, "Skip students and peers that already have an open session")

	rootCmd.AddCommand(bulkMatchCmd)
}

func runBulkMatch(cmd *cobra.Command, _ []string) error {
	cfg, logr, err := setup()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	container, err := app.New(cmd.Context(), cfg, logr)
	if err != nil {
		return err
	}
	defer container.Close()

	result, runErr := container.Matches.RunBulkMatch(cmd.Context(), dto.BulkMatchRequest{
		StudentIDs:    bulkStudentIDs,
		PeerIDs:       bulkPeerIDs,
		OnlyUnmatched: bulkUnmatched,
	})
	if result != nil {
		out, err := json.MarshalIndent(result.Summary, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
	return runErr
}
