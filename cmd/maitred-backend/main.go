package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"maitred/internal/api"
	"maitred/internal/config"
	"maitred/internal/database"
	"maitred/pkg/logger"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	port       = flag.Int("port", 0, "API server port, overrides the configuration")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Backend.Port = *port
	}

	// Initialize logger
	logr := logger.NewLogger(cfg.ServiceName+"-backend", cfg.LogLevel)
	defer logr.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	logr.Info("Connecting to database", zap.String("driver", cfg.Backend.DatabaseDriver))
	db, err := database.Open(cfg.Backend.DatabaseDriver, cfg.Backend.DatabaseURL)
	if err != nil {
		logr.Fatal("Failed to connect to database", zap.Error(err))
	}
	store := database.NewStore(db, logr.Named("db"))
	defer store.Close()

	if err := store.Migrate(); err != nil {
		logr.Fatal("Failed to run migrations", zap.Error(err))
	}
	if cfg.Backend.SeedMenu {
		if err := store.SeedMenu(); err != nil {
			logr.Fatal("Failed to seed menu", zap.Error(err))
		}
	}

	// Initialize API server
	server := api.NewServer(store, logr.Named("http"))
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Backend.Port),
		Handler:      server.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logr.Info("Starting API server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server.Hub().Close()
	if err := httpServer.Shutdown(ctx); err != nil {
		logr.Error("API server shutdown error", zap.Error(err))
	}

	logr.Info("Server stopped")
}
