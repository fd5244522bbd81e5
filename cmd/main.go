package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/jeonghakhur/tennis-tab-sub000/config"
	"github.com/jeonghakhur/tennis-tab-sub000/db"
	"github.com/jeonghakhur/tennis-tab-sub000/handlers"
	"github.com/jeonghakhur/tennis-tab-sub000/middleware"
	"github.com/jeonghakhur/tennis-tab-sub000/realtime"
	"github.com/jeonghakhur/tennis-tab-sub000/repositories"
	api "github.com/jeonghakhur/tennis-tab-sub000/routes"
	"github.com/jeonghakhur/tennis-tab-sub000/services"
	"github.com/jeonghakhur/tennis-tab-sub000/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var assets storage.AssetStore = storage.NoopAssetStore{}
	if cfg.R2Configured() {
		assets, err = storage.NewCloudflareR2Store(storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 store", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 store initialized")
	} else {
		logger.Info("object storage not configured, club logos disabled")
	}

	wsHub := realtime.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	entryRepo := repositories.NewPostgresEntryRepository(dbConn)
	configRepo := repositories.NewPostgresBracketConfigRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	matchRepo := repositories.NewPostgresBracketMatchRepository(dbConn)

	advancement := services.NewAdvancementEngine(matchRepo, groupRepo)
	matchService := services.NewMatchService(matchRepo, entryRepo, assets)
	seedingService := services.NewSeedingService(dbConn, configRepo, groupRepo, entryRepo, matchRepo, logger)
	preliminaryService := services.NewPreliminaryService(dbConn, configRepo, groupRepo, matchRepo, wsHub, logger)
	bracketService := services.NewBracketService(dbConn, configRepo, groupRepo, entryRepo, matchRepo, matchService, assets, wsHub, logger)
	resultService := services.NewResultService(dbConn, matchRepo, configRepo, advancement, wsHub, logger)
	logger.Info("services initialized")

	auth := middleware.NewAuth(cfg.JWTSecretKey)
	bracketHandler := handlers.NewBracketHandler(seedingService, bracketService)
	groupHandler := handlers.NewGroupHandler(seedingService, preliminaryService)
	matchHandler := handlers.NewMatchHandler(matchService, resultService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, configRepo, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, auth, cfg.AllowedOrigins, bracketHandler, groupHandler, matchHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
