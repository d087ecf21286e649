package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oriventa/clearance/internal/accreditations"
	"github.com/oriventa/clearance/internal/app"
	"github.com/oriventa/clearance/internal/auth"
	"github.com/oriventa/clearance/internal/catalog"
	"github.com/oriventa/clearance/internal/derogations"
	"github.com/oriventa/clearance/internal/employees"
	"github.com/oriventa/clearance/internal/permissions"
	"github.com/oriventa/clearance/internal/platform/cache"
	"github.com/oriventa/clearance/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	employeeRepo := employees.NewRepository(dbpool)
	employeeService := employees.NewService(employeeRepo)
	employeeHandler := employees.NewHandler(logger, employeeService)

	permissionStore := permissions.NewStore(dbpool)
	resolver := permissions.NewResolver(permissionStore, redisClient, cfg.PermissionCacheTTL, logger)

	authService := auth.NewService(employeeRepo, resolver, auth.Config{
		Secret:          []byte(cfg.JWTSecret),
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.NewMiddleware(authService)

	accreditationRepo := accreditations.NewRepository(dbpool)
	accreditationService := accreditations.NewService(accreditationRepo, employeeService, catalogService, resolver)
	accreditationHandler := accreditations.NewHandler(logger, accreditationService)

	derogationRepo := derogations.NewRepository(dbpool)
	derogationService := derogations.NewService(derogationRepo, employeeService, catalogService, resolver)
	derogationHandler := derogations.NewHandler(logger, derogationService)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		AuthHandler:          authHandler,
		AuthMiddleware:       authMiddleware,
		EmployeeHandler:      employeeHandler,
		CatalogHandler:       catalogHandler,
		AccreditationHandler: accreditationHandler,
		DerogationHandler:    derogationHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
}
