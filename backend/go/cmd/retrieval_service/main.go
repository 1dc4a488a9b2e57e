package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Minerva_AI/backend/go/internal/config"
	"Minerva_AI/backend/go/internal/retrieval_service/api"
	"Minerva_AI/backend/go/internal/retrieval_service/service"
	"Minerva_AI/backend/go/pkg/logger"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("retrieval_service", "", "")
	appLogger.Info("Logger initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire the engine
	svc, err := service.NewRetrievalService(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal(err.Error())
	}
	defer svc.Close(context.Background())
	appLogger.Info("Retrieval service initialized")

	svc.StartConsumers(ctx)

	// Setup and start Gin router
	handler := api.NewHandler(svc)
	router, err := api.SetupRouter(handler, cfg.Middleware)
	if err != nil {
		appLogger.Fatal(err.Error())
	}

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting server on " + cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(err.Error())
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed: " + err.Error())
	}
	appLogger.Info("Server stopped")
}
