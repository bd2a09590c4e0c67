package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"humanizer/internal/api/v1/router"
	"humanizer/internal/config"
	"humanizer/internal/logger"
	"humanizer/internal/service"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
)

// @title Humanizer API
// @version 1.0
// @description Text humanization, word balances and Paystack billing.
// @host localhost:8080
// @BasePath /api
// @Schemes http https

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	if cfg.SecretManagerEnabled {
		resolveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		resolver, err := service.NewSecretResolver(resolveCtx, cfg, logger)
		if err != nil {
			logger.Fatal().Msgf("Failed to create secret resolver: %v", err)
		}
		if err := resolver.Resolve(resolveCtx, cfg); err != nil {
			logger.Fatal().Msgf("Failed to resolve secrets: %v", err)
		}
		_ = resolver.Close()
		cancel()
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			AttachStacktrace: true,
		}); err != nil {
			logger.Error().Err(err).Msg("Sentry initialization failed")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// 2. Build router
	ctx := context.Background()
	r, cleanup, err := router.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to build router: %v", err)
	}
	defer cleanup()

	// 3. Create HTTP server. No WriteTimeout: humanize responses stream for as
	// long as the model keeps producing.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// 4. Start server in a goroutine
	go func() {
		logger.Info().Msgf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Msgf("Listen: %s", err)
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	logger.Info().Msg("Server shut down gracefully")
}
