package di

import (
	"context"
	"errors"
	"testing"
	"time"

	"devopsquiz/internal/config"
	"devopsquiz/internal/observability"
	"devopsquiz/internal/secrets"
	"devopsquiz/internal/services"
	contextutils "devopsquiz/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct{}

func (stubCompleter) Complete(_ context.Context, _ string) (*services.Completion, error) {
	return &services.Completion{Text: "What is a Dockerfile?", Model: "stub"}, nil
}
func (stubCompleter) Provider() string { return config.ProviderOpenAI }
func (stubCompleter) Model() string    { return "stub" }

type stubStore struct {
	value string
	err   error
}

func (s *stubStore) GetParameter(_ context.Context, _ string) (string, error) {
	return s.value, s.err
}

func (s *stubStore) PutParameter(_ context.Context, _, value string) error {
	s.value = value
	return nil
}

func testLogger() *observability.Logger {
	return observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
}

func testConfig() *config.Config {
	return &config.Config{
		IsTest: true,
		Server: config.ServerConfig{MaxAIConcurrent: 2, MaxAIPerSession: 1},
		AI: config.AIConfig{
			Provider:        config.ProviderOpenAI,
			Model:           config.DefaultOpenAIModel,
			APIKeyParameter: config.DefaultAPIKeyParameter,
		},
		Database: config.DatabaseConfig{Driver: config.DatabaseDriverSQLite},
	}
}

func storeResolver(store secrets.ParameterStore, err error) *secrets.Resolver {
	return secrets.NewResolverWithFactory(func(context.Context) (secrets.ParameterStore, error) {
		return store, err
	}, testLogger())
}

func TestServiceContainer_InitializeWithoutDatabase(t *testing.T) {
	ctx := context.Background()
	sc := NewServiceContainer(testConfig(), testLogger(), WithCompleter(stubCompleter{}))
	require.NoError(t, sc.Initialize(ctx))

	assert.Nil(t, sc.GetDatabase())
	require.NotNil(t, sc.GetCatalog())
	assert.NotEmpty(t, sc.GetCatalog().Categories())

	usage, err := sc.GetUsageStatsService()
	require.NoError(t, err)
	assert.False(t, usage.Enabled())

	ai, err := sc.GetAIService()
	require.NoError(t, err)
	question, err := ai.GenerateQuestion(ctx, "Containers", "Dockerfile", "1")
	require.NoError(t, err)
	assert.Equal(t, "What is a Dockerfile?", question)

	quiz, err := sc.GetQuizService()
	require.NoError(t, err)
	assert.Same(t, sc.GetCatalog(), quiz.Catalog())

	require.NoError(t, sc.Shutdown(ctx))
	_, err = sc.GetAIService()
	assert.ErrorIs(t, err, contextutils.ErrNotFound)
}

func TestServiceContainer_InitializeWithSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Database.URL = ":memory:"

	sc := NewServiceContainer(cfg, testLogger(), WithCompleter(stubCompleter{}))
	require.NoError(t, sc.Initialize(ctx))
	db := sc.GetDatabase()
	require.NotNil(t, db)

	ai, err := sc.GetAIService()
	require.NoError(t, err)
	_, err = ai.GenerateQuestion(ctx, "Containers", "Dockerfile", "1")
	require.NoError(t, err)

	usage, err := sc.GetUsageStatsService()
	require.NoError(t, err)
	assert.True(t, usage.Enabled())
	rows, err := usage.Summary(ctx, time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].RequestCount)
	assert.Equal(t, services.UsageTypeQuestionGeneration, rows[0].UsageType)

	require.NoError(t, sc.Shutdown(ctx))
	assert.Error(t, db.PingContext(ctx), "database is closed on shutdown")
}

func TestServiceContainer_ResolvesKeyFromParameterStore(t *testing.T) {
	sc := NewServiceContainer(testConfig(), testLogger(), WithResolver(storeResolver(&stubStore{value: "sk-from-ssm"}, nil)))
	require.NoError(t, sc.Initialize(context.Background()))

	_, err := sc.GetAIService()
	assert.NoError(t, err)
}

func TestServiceContainer_MissingKeyFails(t *testing.T) {
	sc := NewServiceContainer(testConfig(), testLogger(), WithResolver(storeResolver(nil, errors.New("no credentials"))))

	err := sc.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, contextutils.ErrAIConfigInvalid)

	_, err = sc.GetQuizService()
	assert.Error(t, err)
}

func TestServiceContainer_BadCatalogPath(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.Path = "/does/not/exist.yaml"
	sc := NewServiceContainer(cfg, testLogger(), WithCompleter(stubCompleter{}))

	err := sc.Initialize(context.Background())
	assert.ErrorIs(t, err, contextutils.ErrInvalidInput)
}

func TestGetServiceAs_WrongType(t *testing.T) {
	sc := NewServiceContainer(testConfig(), testLogger(), WithCompleter(stubCompleter{}))
	require.NoError(t, sc.Initialize(context.Background()))

	_, err := GetServiceAs[services.QuizServiceInterface](sc, ServiceAI)
	assert.Error(t, err)
}
