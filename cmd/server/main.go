// Package main provides the main entry point for the DevOps interview quiz server.
// It loads configuration, wires the services and serves the quiz pages.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devopsquiz/internal/config"
	"devopsquiz/internal/di"
	"devopsquiz/internal/handlers"
	"devopsquiz/internal/observability"
	contextutils "devopsquiz/internal/utils"
	"devopsquiz/internal/version"
)

// Application encapsulates the main application logic and can be tested
type Application struct {
	container di.ServiceContainerInterface
	server    *http.Server
}

// NewApplication creates a new application instance
func NewApplication(container di.ServiceContainerInterface) (*Application, error) {
	quizService, err := container.GetQuizService()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get quiz service")
	}

	aiService, err := container.GetAIService()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get AI service")
	}

	usageStatsService, err := container.GetUsageStatsService()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get usage stats service")
	}

	cfg := container.GetConfig()
	router, err := handlers.NewRouter(cfg, quizService, aiService, usageStatsService, container.GetDatabase(), container.GetLogger())
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to build router")
	}

	return &Application{
		container: container,
		server: &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: config.ServerReadTimeout,
		},
	}, nil
}

// Handler returns the HTTP handler serving the application
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is cancelled or the listener fails
func (a *Application) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-serverErr:
		if !ok {
			return nil
		}
		return contextutils.WrapError(err, "server failed")
	}
}

// Shutdown stops accepting connections, waits for in-flight requests and
// then shuts down the services
func (a *Application) Shutdown(ctx context.Context) error {
	return errors.Join(
		a.server.Shutdown(ctx),
		a.container.Shutdown(ctx),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.OpenTelemetry.ServiceVersion = version.Version

	providers, err := observability.SetupObservability(&cfg.OpenTelemetry, "devops-quiz", observability.ParseLevel(cfg.Server.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	logger := providers.Logger
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Error shutting down telemetry: %v\n", err)
		}
	}()

	logger.Info(ctx, "Starting DevOps quiz server", map[string]interface{}{
		"port":          cfg.Server.Port,
		"log_level":     cfg.Server.LogLevel,
		"version":       version.Version,
		"ai_provider":   cfg.AI.Provider,
		"ai_model":      cfg.AI.Model,
		"session_store": cfg.Session.Store,
		"usage_stats":   cfg.UsageStatsEnabled(),
	})

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		logger.Error(ctx, "Failed to initialize services", err, nil)
		os.Exit(1)
	}

	app, err := NewApplication(container)
	if err != nil {
		logger.Error(ctx, "Failed to create application", err, nil)
		_ = container.Shutdown(context.Background())
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "Application failed", err, nil)
		_ = container.Shutdown(context.Background())
		os.Exit(1)
	}
	logger.Info(context.Background(), "Received shutdown signal, shutting down gracefully", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error during application shutdown", err, nil)
		os.Exit(1)
	}

	logger.Info(shutdownCtx, "Shutdown completed successfully", nil)
}
