// Package main provides a local HTTP server for development and testing.
// It serves the eligibility and spam forms and the history dashboards.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"scoring-engine/internal/bootstrap"
	"scoring-engine/internal/config"
	"scoring-engine/internal/handlers"
	"scoring-engine/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := utils.InitLogger(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.Sync()
	logger := utils.GetLogger()

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to start scoring engine", zap.Error(err))
	}
	defer app.Close()

	limiter := NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer limiter.Stop()

	srv := NewServer(app.Service,
		handlers.NewHealthHandler(app, cfg.ServiceVersion, cfg.Stage),
		app.Metrics,
		limiter)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Scoring engine API listening",
			zap.String("addr", server.Addr),
			zap.String("stage", cfg.Stage),
			zap.Int("rate_limit_per_minute", cfg.RateLimitPerMinute))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
