package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/peer-match-api/internal/dto"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
)

type bulkRunner interface {
	RunBulkMatch(ctx context.Context, req dto.BulkMatchRequest) (*dto.BulkMatchResponse, error)
}

// runBulkPass matches every student and peer without an open session and logs the outcome.
// A held lock or an empty population is expected between runs and is not an error.
func runBulkPass(ctx context.Context, runner bulkRunner, logger *zap.Logger) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()

	result, err := runner.RunBulkMatch(ctx, dto.BulkMatchRequest{OnlyUnmatched: true})
	switch {
	case errors.Is(err, appErrors.ErrLockNotAcquired):
		logger.Info("bulk match skipped, another run holds the lock")
	case errors.Is(err, appErrors.ErrInsufficientInput):
		logger.Info("bulk match skipped, no unmatched students or peers")
	case err != nil:
		fields := []zap.Field{zap.Error(err), zap.Duration("elapsed", time.Since(started))}
		if result != nil {
			fields = append(fields, zap.Int("created", result.Summary.TotalCreated))
		}
		logger.Error("bulk match failed", fields...)
	default:
		logger.Info("bulk match pass complete",
			zap.Int("created", result.Summary.TotalCreated),
			zap.Int("failed", result.Summary.Failed),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}
