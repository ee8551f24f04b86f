// Package main provides the main entry point for the DevOps quiz admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devopsquiz/cmd/adm/commands"
	"devopsquiz/internal/config"
	"devopsquiz/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Disable all OpenTelemetry features for admin CLI to avoid connection errors
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	level := observability.ParseLevel("error")
	if os.Getenv("ADM_DEBUG") != "" {
		level = observability.ParseLevel("debug")
	}

	providers, err := observability.SetupObservability(&cfg.OpenTelemetry, "devops-quiz-adm", level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	env := commands.NewEnv(cfg, providers.Logger)
	err = commands.NewRootCommand(env).ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = providers.Shutdown(shutdownCtx)

	if err != nil {
		os.Exit(1)
	}
}
