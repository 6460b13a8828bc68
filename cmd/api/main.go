package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/headlamp-app/headlamp/internal/api/openai"
	"github.com/headlamp-app/headlamp/internal/config"
	"github.com/headlamp-app/headlamp/internal/httpapi"
	"github.com/headlamp-app/headlamp/internal/intake"
	"github.com/headlamp-app/headlamp/internal/server"
	"github.com/headlamp-app/headlamp/internal/storage"
	"github.com/headlamp-app/headlamp/internal/storage/memory"
	"github.com/headlamp-app/headlamp/internal/storage/sqlite"
	"github.com/headlamp-app/headlamp/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdownTracer, err := telemetry.InitTracer(cfg.App.Name, logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStore()

	client := openai.NewClient(cfg.OpenAI.APIKey)

	engine, err := intake.NewEngine(client, store, store, cfg.OpenAI.Model, logger)
	if err != nil {
		log.Fatalf("Failed to construct engine: %v", err)
	}
	apps := intake.NewApplications(store, engine, logger)
	orchestrator := intake.NewOrchestrator(store, engine, apps, logger)

	srv := server.New(cfg.Server.Port, cfg.App.Name, logger)
	httpapi.NewHandler(orchestrator, apps, cfg.App.Name, logger).Register(srv.Router)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func openStore(cfg *config.Config) (storage.Store, func(), error) {
	switch cfg.Storage.Type {
	case "memory":
		return memory.New(), func() {}, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLite.Path), 0o755); err != nil {
			return nil, nil, err
		}
		store, err := sqlite.New(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
}
