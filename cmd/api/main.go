package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/admin"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/analyzer"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/api"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/audit"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/caller"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/config"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/database"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/emergency"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/leaderboard"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/service"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting OnlyFachas API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.StoreBackend),
		slog.String("analyzer", cfg.AnalyzerProvider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := database.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	primary, err := analyzer.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	auditLogger := audit.NewSlogLogger(logger)

	controls := emergency.NewControls(st, cfg.EmergencyDefaults(), emergency.WithLogger(logger))
	if cfg.EmergencyConfigURL != "" {
		if err := controls.LoadRemote(ctx, cfg.EmergencyConfigURL); err != nil {
			logger.Warn("remote emergency config not loaded, using defaults", slog.Any("error", err))
		}
	}

	rateLimited := caller.New(primary, analyzer.Fallback(), st,
		caller.WithCooldown(cfg.Cooldown()),
		caller.WithAdmission(controls),
		caller.WithObserver(audit.NewObserver(auditLogger)),
		caller.WithLogger(logger),
	)
	board := leaderboard.New(st, leaderboard.WithLogger(logger))

	hub := ws.NewHub()
	go hub.Run()
	defer hub.Stop()

	svc := service.NewFachaService(controls, rateLimited, board, st).
		WithPublisher(hub).
		WithAudit(auditLogger).
		WithLogger(logger)

	router := api.NewRouter(logger, &api.Dependencies{
		Service:    svc,
		Store:      st,
		Hub:        hub,
		JWTService: admin.NewJWTService(cfg.AdminJWTSecret, cfg.AdminJWTIssuer, cfg.AdminTokenTTL),
		RateLimit:  cfg.RateLimitPerMinute,
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}
