package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	flag "github.com/spf13/pflag"

	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/cache"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/config"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/database"
	"github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/monitoring"
)

// @title                       Sprint Risk-o-Meter API
// @version                     1.0.0
// @description                 Scores sprint delivery risk from requirement ambiguity and team overload.
// @BasePath                    /
// @securityDefinitions.apikey  AdminBearer
// @in                          header
// @name                        Authorization
func main() {
	configPath := flag.StringP("config", "c", os.Getenv("RISK_CONFIG"), "optional YAML file with server settings")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appLogger := monitoring.NewLogger()
	appLogger.SetLevel(monitoring.ParseLevel(cfg.LogLevel))
	slog.SetDefault(appLogger.Logger)

	gin.SetMode(cfg.GinMode)

	var db *database.DB
	if cfg.History {
		db, err = database.NewDB(cfg.DataDir)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	appMetrics := monitoring.NewMetrics()
	appCache := cache.NewCache(cfg.CacheTTL).WithMetrics(appMetrics, appLogger)
	defer appCache.Stop()

	server := NewServer(cfg, db, appCache, appMetrics, appLogger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	server.security.Cleanup(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "data_dir", cfg.DataDir, "profile", cfg.Profile, "history", cfg.History,
			"admin_auth", server.auth.Enabled())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}
