package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"goals/internal/backend"
	"goals/internal/cli"
	apphttp "goals/internal/http"
	"goals/internal/log"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.Default(log.ComponentApp).Warn("Failed to load .env file", log.FieldError, err)
	}
	logger := cli.SetupLogger(log.ComponentApp)

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              res.Ready,
		Logger:             logger,
	}, res.Repository)
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting goals server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events_enabled", cfg.EventsEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = res.Cleanup()
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
