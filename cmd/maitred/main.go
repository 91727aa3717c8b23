package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"maitred/internal/config"
	"maitred/internal/dispatch"
	"maitred/internal/monitoring"
	"maitred/internal/pos"
	"maitred/internal/receipt"
	"maitred/internal/remote"
	"maitred/internal/tables"
	"maitred/internal/tui"
	"maitred/pkg/logger"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	apiURL     = flag.String("api-url", "", "Backend base URL, overrides the configuration")
	headless   = flag.Bool("headless", false, "Run the sync engine without the terminal UI")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *apiURL != "" {
		cfg.APIBaseURL = *apiURL
	}

	// Initialize logger. The terminal belongs to the UI unless headless.
	var logr *zap.Logger
	if *headless {
		logr = logger.NewLogger(cfg.ServiceName, cfg.LogLevel)
	} else {
		logr, err = logger.NewFileLogger(cfg.ServiceName, cfg.LogLevel, cfg.LogFile)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
	}
	defer logr.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := monitoring.NewMetrics()
	if cfg.MetricsConfig.Enabled {
		server := startMetricsServer(cfg, metrics, logr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logr.Error("Metrics server shutdown error", zap.Error(err))
			}
		}()
	}

	client := remote.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, logr.Named("remote"))
	renderer := receipt.NewTextRenderer(cfg.ReceiptDir, money(cfg), logr.Named("receipt"))
	opts := pos.Options{
		TableCount:     cfg.TableCount,
		SyncInterval:   cfg.RefreshInterval,
		RequestTimeout: cfg.RequestTimeout,
	}

	logr.Info("POS starting",
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.Int("tables", cfg.TableCount),
		zap.Bool("headless", *headless),
	)

	if *headless {
		runHeadless(ctx, cfg, client, renderer, opts, metrics, logr)
	} else if err := runUI(ctx, cfg, client, renderer, opts, metrics, logr); err != nil {
		logr.Error("Terminal UI failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	logr.Info("POS stopped")
}

func money(cfg *config.Config) receipt.Money {
	return receipt.Money{Currency: cfg.Currency, Exponent: cfg.CurrencyExponent}
}

func runUI(ctx context.Context, cfg *config.Config, client *remote.Client, renderer *receipt.TextRenderer, opts pos.Options, metrics *monitoring.Metrics, logr *zap.Logger) error {
	bridge := tui.NewBridge()
	session := pos.NewSession(client, renderer, bridge, opts, metrics, logr)

	program := tea.NewProgram(
		tui.NewModel(ctx, session, money(cfg)),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	bridge.Attach(program)

	if cfg.Websocket.Enabled {
		watcher := remote.NewWatcher(cfg.APIBaseURL, func(ev remote.TableEvent) {
			bridge.Post(func() { session.HandleEvent(ev) })
		}, logr.Named("watch"))
		go watcher.Run(ctx)
	}

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runHeadless(ctx context.Context, cfg *config.Config, client *remote.Client, renderer *receipt.TextRenderer, opts pos.Options, metrics *monitoring.Metrics, logr *zap.Logger) {
	loop := dispatch.NewLoop(64)
	session := pos.NewSession(client, renderer, loop, opts, metrics, logr)

	go loop.Run(ctx)
	loop.Post(func() { session.Start(ctx) })

	if cfg.Websocket.Enabled {
		watcher := remote.NewWatcher(cfg.APIBaseURL, func(ev remote.TableEvent) {
			loop.Post(func() { session.HandleEvent(ev) })
		}, logr.Named("watch"))
		go watcher.Run(ctx)
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logr.Info("Shutting down")
			return
		case <-ticker.C:
			err := loop.Call(ctx, func() {
				counts := tables.CountByState(session.Statuses())
				sync := session.SyncStatus()
				logr.Info("Floor status",
					zap.Int("empty", counts["empty"]),
					zap.Int("ordered", counts["ordered"]),
					zap.Int("reserved", counts["reserved"]),
					zap.String("sync_state", sync.State.String()),
					zap.Time("last_sync", sync.LastSync),
				)
			})
			if err != nil {
				return
			}
		}
	}
}

func startMetricsServer(cfg *config.Config, metrics *monitoring.Metrics, logr *zap.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	metricsRouter := gin.New()
	metricsRouter.GET(cfg.MetricsConfig.Path, gin.WrapH(metrics.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsConfig.Port),
		Handler: metricsRouter,
	}

	go func() {
		logr.Info("Starting metrics server", zap.Int("port", cfg.MetricsConfig.Port), zap.String("path", cfg.MetricsConfig.Path))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Error("Metrics server error", zap.Error(err))
		}
	}()
	return metricsServer
}
