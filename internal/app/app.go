package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/peer-match-api/internal/repository"
	"github.com/noah-isme/peer-match-api/internal/service"
	"github.com/noah-isme/peer-match-api/pkg/cache"
	"github.com/noah-isme/peer-match-api/pkg/config"
	"github.com/noah-isme/peer-match-api/pkg/database"
)

// Container holds the shared dependencies of every binary.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	Metrics  *service.MetricsService
	Auth     *service.AuthService
	Matches  *service.MatchService
	Sessions *service.SessionService
	Students *service.StudentService
	Peers    *service.PeerService
}

// New connects to Postgres (and Redis when enabled) and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if rdb == nil {
		logger.Info("redis disabled, bulk match lock is process-local")
	}

	return Build(cfg, logger, db, rdb), nil
}

// Build wires repositories and services on top of open connections.
func Build(cfg *config.Config, logger *zap.Logger, db *sqlx.DB, rdb *redis.Client) *Container {
	validate := validator.New()
	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	studentRepo := repository.NewStudentRepository(db)
	peerRepo := repository.NewPeerRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	locker := repository.NewBulkLocker(rdb)

	return &Container{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Redis:   rdb,
		Metrics: metrics,
		Auth: service.NewAuthService(peerRepo, validate, logger, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		}),
		Matches: service.NewMatchService(studentRepo, peerRepo, sessionRepo, locker, metrics, validate, logger, service.MatchConfig{
			DefaultCandidates: cfg.Matching.DefaultCandidates,
			MaxCandidates:     cfg.Matching.MaxCandidates,
			BulkLockTTL:       cfg.Matching.BulkLockTTL,
		}),
		Sessions: service.NewSessionService(sessionRepo, validate, logger, service.SessionConfig{
			ListLimit:   cfg.Matching.SessionListLimit,
			AuthEnabled: cfg.Auth.Enabled,
		}),
		Students: service.NewStudentService(studentRepo, validate, logger),
		Peers:    service.NewPeerService(peerRepo, validate, logger, service.PeerConfig{AuthEnabled: cfg.Auth.Enabled}),
	}
}

// Close releases the database and Redis connections.
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("close postgres", zap.Error(err))
		}
	}
}
