package handlers

import (
	"context"
	"time"

	"devopsquiz/internal/models"
	"devopsquiz/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockAIService is a mock implementation of services.AIServiceInterface
type MockAIService struct {
	mock.Mock
}

func (m *MockAIService) GenerateQuestion(ctx context.Context, category, keyword, difficulty string) (string, error) {
	args := m.Called(ctx, category, keyword, difficulty)
	return args.String(0), args.Error(1)
}

func (m *MockAIService) EvaluateAnswer(ctx context.Context, question, answer, difficulty string) (*models.Evaluation, error) {
	args := m.Called(ctx, question, answer, difficulty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Evaluation), args.Error(1)
}

func (m *MockAIService) GetConcurrencyStats() services.ConcurrencyStats {
	return services.ConcurrencyStats{MaxConcurrent: 10, MaxPerSession: 1}
}

func (m *MockAIService) Shutdown(_ context.Context) error {
	return nil
}

// MockUsageStatsService is a mock implementation of services.UsageStatsServiceInterface
type MockUsageStatsService struct {
	mock.Mock
}

func (m *MockUsageStatsService) Record(ctx context.Context, event services.UsageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockUsageStatsService) Summary(ctx context.Context, since time.Time) ([]*services.UsageStats, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*services.UsageStats), args.Error(1)
}

func (m *MockUsageStatsService) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}
