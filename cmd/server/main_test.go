package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"devopsquiz/internal/config"
	"devopsquiz/internal/di"
	"devopsquiz/internal/observability"
	"devopsquiz/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCompleter struct{}

func (staticCompleter) Complete(_ context.Context, _ string) (*services.Completion, error) {
	return &services.Completion{Text: "Describe a blue-green deployment.", Model: "static"}, nil
}
func (staticCompleter) Provider() string { return config.ProviderOpenAI }
func (staticCompleter) Model() string    { return "static" }

func TestNewApplication(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		IsTest: true,
		Server: config.ServerConfig{Port: "0", SessionSecret: "test-secret"},
		Session: config.SessionConfig{
			Store: config.SessionStoreMemory,
		},
		AI: config.AIConfig{Provider: config.ProviderOpenAI, Model: config.DefaultOpenAIModel},
	}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	container := di.NewServiceContainer(cfg, logger, di.WithCompleter(staticCompleter{}))
	require.NoError(t, container.Initialize(ctx))

	app, err := NewApplication(container)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Kubernetes")

	require.NoError(t, app.Shutdown(ctx))
}

func TestNewApplication_UninitializedContainer(t *testing.T) {
	cfg := &config.Config{IsTest: true}
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})

	_, err := NewApplication(di.NewServiceContainer(cfg, logger))
	assert.Error(t, err)
}
