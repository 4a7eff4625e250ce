package main

import (
	"alcyxob/coaching-platform/internal/api"
	"alcyxob/coaching-platform/internal/cache"
	"alcyxob/coaching-platform/internal/service"
	"alcyxob/coaching-platform/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const migrateTimeout = time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long:  `Connects to the configured database, ensures its schema and indexes, and serves the HTTP API until interrupted.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := openBackend(cfg.Database, logger)
	if err != nil {
		logger.Error("could not connect to database", zap.Error(err))
		return err
	}
	defer func() {
		logger.Info("closing database connection")
		if err := db.close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	migrateCtx, cancelMigrate := context.WithTimeout(ctx, migrateTimeout)
	err = db.migrate(migrateCtx)
	cancelMigrate()
	if err != nil {
		logger.Error("failed to prepare database schema", zap.Error(err))
		return err
	}

	// --- Object storage (optional) ---
	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(ctx, cfg.S3, logger.Named("s3"))
		if err != nil {
			logger.Error("failed to initialize S3 storage", zap.Error(err))
			return err
		}
	} else {
		logger.Warn("s3.bucket_name not set, workout videos are disabled")
	}

	// --- Defaults cache (optional) ---
	var defaultsCache service.DefaultsCache
	dc, err := cache.NewDefaultsCache(cfg.Cache)
	if err != nil {
		logger.Error("failed to initialize defaults cache", zap.Error(err))
		return err
	}
	if dc != nil {
		defaultsCache = dc
		logger.Info("defaults cache enabled", zap.String("type", cfg.Cache.Type), zap.Duration("ttl", cfg.Cache.TTL))
	}

	if cfg.Admin.PasswordHash == "" {
		logger.Warn("admin.password_hash not set, defaults cannot be saved")
	}

	// --- Services ---
	services := api.Services{
		Auth:     service.NewAuthService(db.users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Plans:    service.NewPlanService(db.plans, fileStorage, cfg.S3.URLExpiry, logger),
		Defaults: service.NewDefaultsService(db.defaults, service.NewAdminVerifier(cfg.Admin.PasswordHash, cfg.Admin.VerifyTimeout), defaultsCache, logger),
	}

	// --- HTTP ---
	gin.SetMode(cfg.Server.GinMode)
	router := api.NewRouter(cfg.JWT.Secret, cfg.Server.CORSOrigins, services, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", cfg.Server.Address), zap.String("driver", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("server exiting")
	return nil
}
