package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/peer-match-api/api/swagger"
	"github.com/noah-isme/peer-match-api/internal/app"
	"github.com/noah-isme/peer-match-api/internal/handler"
	"github.com/noah-isme/peer-match-api/internal/middleware"
	"github.com/noah-isme/peer-match-api/pkg/config"
	"github.com/noah-isme/peer-match-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/peer-match-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/peer-match-api/pkg/middleware/requestid"
)

// @title Peer Match API
// @version 1.0.0
// @description Scores students against peer tutors, ranks candidates, runs greedy bulk matching and tracks tutoring sessions.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to initialise dependencies", zap.Error(err))
	}
	defer container.Close()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if container.Metrics != nil {
		r.Use(middleware.Metrics(container.Metrics))
	}

	ops := handler.NewMetricsHandler(container.Metrics, container.DB)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	if container.Metrics != nil {
		r.GET("/metrics", ops.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Router{
		Sessions:    handler.NewSessionHandler(container.Matches, container.Sessions),
		Students:    handler.NewStudentHandler(container.Students),
		Peers:       handler.NewPeerHandler(container.Peers),
		Auth:        handler.NewAuthHandler(container.Auth),
		Tokens:      container.Auth,
		AuthEnabled: cfg.Auth.Enabled,
	}.Register(r.Group(cfg.APIPrefix))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "auth_enabled", cfg.Auth.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
